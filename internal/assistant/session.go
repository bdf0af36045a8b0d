package assistant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/vector"
)

// IndexProvider loads the read-only index of a manual.
type IndexProvider interface {
	Index(manual string) (*vector.FlatIndex, error)
}

// Session is one conversation about one manual. It owns the conversation state and
// allows one question in flight at a time.
type Session struct {
	ID string

	assistant *Assistant
	indexes   IndexProvider

	turn sync.Mutex // held for the duration of Ask and SwitchManual

	mu        sync.RWMutex
	manual    string
	index     *vector.FlatIndex
	state     models.ConversationState
	last      *models.Answer
	createdAt time.Time
	updatedAt time.Time
}

// NewSession opens a session on manual. A missing or corrupt index yields a
// *ManualUnavailableError.
func (a *Assistant) NewSession(indexes IndexProvider, manual string) (*Session, error) {
	idx, err := indexes.Index(manual)
	if err != nil {
		return nil, &ManualUnavailableError{Manual: manual, Err: err}
	}
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		assistant: a,
		indexes:   indexes,
		manual:    manual,
		index:     idx,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Ask streams an answer to query (see Assistant.Stream) and records the exchange.
// It returns ErrSessionBusy when another question is in flight.
func (s *Session) Ask(ctx context.Context, query string, onToken func(string)) (*models.Answer, error) {
	if !s.turn.TryLock() {
		return nil, ErrSessionBusy
	}
	defer s.turn.Unlock()

	s.mu.RLock()
	idx, state := s.index, s.state
	s.mu.RUnlock()

	res, err := s.assistant.Stream(ctx, idx, state, query, onToken)
	if res == nil {
		return nil, err
	}
	s.mu.Lock()
	s.state = res.State
	answer := res.Answer
	s.last = &answer
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return &answer, err
}

// SwitchManual loads manual's index and starts a fresh conversation, discarding the
// previous history and citations. On failure the session keeps its current manual.
func (s *Session) SwitchManual(manual string) error {
	if !s.turn.TryLock() {
		return ErrSessionBusy
	}
	defer s.turn.Unlock()

	idx, err := s.indexes.Index(manual)
	if err != nil {
		return &ManualUnavailableError{Manual: manual, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual = manual
	s.index = idx
	s.state = models.ConversationState{}
	s.last = nil
	s.updatedAt = time.Now()
	return nil
}

// Manual returns the manual the session is scoped to.
func (s *Session) Manual() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manual
}

// State returns a copy of the conversation.
func (s *Session) State() models.ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// LastAnswer returns the most recent answer, or nil.
func (s *Session) LastAnswer() *models.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	a := *s.last
	return &a
}

// Citations returns the pages backing the last answer; empty for fallback answers.
func (s *Session) Citations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.last.HasPages() {
		return nil
	}
	return append([]string(nil), s.last.Citations...)
}

// UpdatedAt returns the time of the last exchange or manual switch.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// SessionManager tracks live sessions by ID.
type SessionManager struct {
	assistant *Assistant
	indexes   IndexProvider
	mu        sync.RWMutex
	sessions  map[string]*Session
}

// NewSessionManager creates a manager whose sessions share assistant and indexes.
func NewSessionManager(assistant *Assistant, indexes IndexProvider) *SessionManager {
	return &SessionManager{
		assistant: assistant,
		indexes:   indexes,
		sessions:  make(map[string]*Session),
	}
}

// Create opens and registers a session on manual.
func (m *SessionManager) Create(manual string) (*Session, error) {
	s, err := m.assistant.NewSession(m.indexes, manual)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with id.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete forgets the session with id. It reports whether the session existed.
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// IDs returns the IDs of live sessions, sorted.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Prune removes sessions idle for longer than maxIdle and returns how many were removed.
func (m *SessionManager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
