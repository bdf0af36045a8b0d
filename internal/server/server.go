// Package server provides the HTTP API for tebiki: manual catalog, chat sessions with
// blocking or streamed answers, and the page images answers cite.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/tebiki/internal/assistant"
	"github.com/hyperjump/tebiki/internal/config"
	"github.com/hyperjump/tebiki/internal/storage"
	"github.com/hyperjump/tebiki/internal/vector"
	"go.uber.org/zap"
)

// Server is the HTTP server for the tebiki API.
type Server struct {
	sessions  *assistant.SessionManager
	indexes   *vector.Cache
	records   storage.RecordStore // optional; enriches manuals and status
	config    *config.Config
	logger    *zap.Logger
	router    chi.Router
	server    *http.Server
	startedAt time.Time
}

// NewServer creates a server with the given dependencies. records may be nil.
func NewServer(
	sessions *assistant.SessionManager,
	indexes *vector.Cache,
	records storage.RecordStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		indexes:   indexes,
		records:   records,
		config:    cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	timeout := s.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Get("/health", s.handleHealth)
		r.Get("/api/v1/health", s.handleHealth)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/api/v1/manuals", s.handleListManuals)
		r.Get("/api/v1/manuals/{manual}/pages", s.handleListPages)
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
		r.Put("/api/v1/sessions/{id}/manual", s.handleSwitchManual)
	})
	// Streamed answers are bounded by the completion timeout, not the request timeout.
	r.Post("/api/v1/sessions/{id}/messages", s.handleAsk)

	pages := http.StripPrefix("/pages/", http.FileServer(http.Dir(s.config.Storage.DocsDir)))
	r.Handle("/pages/*", pages)
	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
