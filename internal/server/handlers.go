package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/tebiki/internal/assistant"
	"github.com/hyperjump/tebiki/internal/extract"
	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/resilience"
	"github.com/hyperjump/tebiki/internal/storage"
	"github.com/hyperjump/tebiki/internal/vector"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	manuals, err := s.indexes.Store().Manuals()
	if err != nil {
		s.logger.Error("status: list manuals failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"manuals":        manuals,
		"loaded_indexes": s.indexes.Loaded(),
		"sessions":       len(s.sessions.IDs()),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}
	if s.records != nil {
		count, err := s.records.CountRecords(r.Context())
		if err != nil {
			s.logger.Error("status: count records failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["records"] = count
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"completion_provider":  cfg.Completion.Provider,
		"completion_model":     cfg.Completion.Model,
		"top_k":                cfg.Assistant.TopK,
		"chunk_max_tokens":     cfg.Chunking.MaxTokens,
		"chunk_overlap_tokens": cfg.Chunking.OverlapOrDefault(),
		"index_dir":            cfg.Storage.IndexDir,
		"records_path":         cfg.Storage.RecordsPath,
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.RecordsPath, cfg.Storage.IndexDir); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type manualInfo struct {
	Manual  string `json:"manual"`
	Pages   int    `json:"pages,omitempty"`
	Records int    `json:"records,omitempty"`
}

func (s *Server) handleListManuals(w http.ResponseWriter, r *http.Request) {
	names, err := s.indexes.Store().Manuals()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := make(map[string]storage.ManualStats)
	if s.records != nil {
		list, err := s.records.ListManuals(r.Context())
		if err != nil {
			s.logger.Warn("list manual stats failed", zap.Error(err))
		}
		for _, m := range list {
			stats[m.Manual] = m
		}
	}
	out := make([]manualInfo, 0, len(names))
	for _, name := range names {
		st := stats[name]
		out = append(out, manualInfo{Manual: name, Pages: st.Pages, Records: st.Records})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"manuals": out})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	manual := chi.URLParam(r, "manual")
	if err := vector.ValidateManual(manual); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pages, err := extract.ListPages(s.config.Storage.DocsDir, manual, s.config.Build.Extensions)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, http.StatusNotFound, "manual not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.Path
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"manual": manual, "pages": paths})
}

type sessionRequest struct {
	Manual string `json:"manual"`
}

type sessionResponse struct {
	ID        string           `json:"id"`
	Manual    string           `json:"manual"`
	Turns     int              `json:"turns"`
	Messages  []models.Message `json:"messages,omitempty"`
	Citations []string         `json:"citations"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newSessionResponse(sess *assistant.Session, withMessages bool) sessionResponse {
	state := sess.State()
	resp := sessionResponse{
		ID:        sess.ID,
		Manual:    sess.Manual(),
		Turns:     len(state.Messages),
		Citations: sess.Citations(),
		UpdatedAt: sess.UpdatedAt(),
	}
	if resp.Citations == nil {
		resp.Citations = []string{}
	}
	if withMessages {
		resp.Messages = state.Messages
	}
	return resp
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Manual == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body: manual is required")
		return
	}
	sess, err := s.sessions.Create(req.Manual)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.logger.Debug("session created", zap.String("id", sess.ID), zap.String("manual", req.Manual))
	s.respondJSON(w, http.StatusCreated, newSessionResponse(sess, false))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(sess, true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Delete(id) {
		s.respondErr(w, assistant.ErrSessionNotFound)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleSwitchManual(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Manual == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body: manual is required")
		return
	}
	if err := sess.SwitchManual(req.Manual); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newSessionResponse(sess, false))
}

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	SessionID   string   `json:"session_id"`
	Manual      string   `json:"manual"`
	Answer      string   `json:"answer"`
	Citations   []string `json:"citations"`
	Fallback    bool     `json:"fallback"`
	Interrupted bool     `json:"interrupted,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func newAnswerResponse(sess *assistant.Session, answer *models.Answer, err error) answerResponse {
	resp := answerResponse{
		SessionID: sess.ID,
		Manual:    sess.Manual(),
		Answer:    answer.Visible,
		Citations: []string{},
		Fallback:  answer.Fallback,
	}
	if answer.HasPages() {
		resp.Citations = answer.Citations
	}
	if err != nil {
		resp.Interrupted = true
		resp.Error = err.Error()
	}
	return resp
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "invalid request body: question is required")
		return
	}
	s.logger.Debug("question", zap.String("session", sess.ID), zap.String("manual", sess.Manual()))

	if wantsEventStream(r) {
		s.streamAnswer(w, r, sess, req.Question)
		return
	}
	answer, err := sess.Ask(r.Context(), req.Question, nil)
	var streamErr *assistant.StreamError
	if err != nil && !errors.As(err, &streamErr) {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newAnswerResponse(sess, answer, err))
}

func (s *Server) streamAnswer(w http.ResponseWriter, r *http.Request, sess *assistant.Session, question string) {
	sse := newEventWriter(w)
	answer, err := sess.Ask(r.Context(), question, func(text string) {
		if werr := sse.send("token", map[string]string{"text": text}); werr != nil {
			s.logger.Debug("sse write failed", zap.Error(werr))
		}
	})
	var streamErr *assistant.StreamError
	if err != nil && !errors.As(err, &streamErr) {
		if !sse.started {
			s.respondErr(w, err)
			return
		}
		_ = sse.send("error", map[string]string{"error": err.Error()})
		return
	}
	resp := newAnswerResponse(sess, answer, err)
	_ = sse.send("citations", map[string]interface{}{"citations": resp.Citations, "fallback": resp.Fallback})
	if err != nil {
		_ = sse.send("error", map[string]string{"error": err.Error()})
		return
	}
	_ = sse.send("done", resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assistant.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, vector.ErrInvalidManual):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrManualUnavailable) && errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrManualUnavailable), errors.Is(err, resilience.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
