package llm

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/hyperjump/tebiki/internal/models"
)

// FakeCompleter replays scripted fragments. It records every conversation it receives.
// Used by tests and by the hash embedding profile for offline demos.
type FakeCompleter struct {
	// Fragments are streamed in order; Complete returns their concatenation.
	Fragments []string
	// FailAfter, when positive, makes the stream return Err after that many fragments.
	FailAfter int
	// Err is returned by Stream/Complete immediately when FailAfter is zero, or mid-stream
	// otherwise.
	Err error

	mu    sync.Mutex
	calls [][]models.Message
}

// NewFakeCompleter returns a completer that answers with text split on "|" into fragments.
func NewFakeCompleter(script string) *FakeCompleter {
	return &FakeCompleter{Fragments: strings.Split(script, "|")}
}

// Calls returns the conversations received so far.
func (f *FakeCompleter) Calls() [][]models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.Message(nil), f.calls...)
}

func (f *FakeCompleter) record(messages []models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]models.Message(nil), messages...))
}

// Complete returns the concatenated fragments.
func (f *FakeCompleter) Complete(ctx context.Context, messages []models.Message) (string, error) {
	f.record(messages)
	if f.Err != nil && f.FailAfter == 0 {
		return "", f.Err
	}
	return strings.Join(f.Fragments, ""), nil
}

// Stream replays the fragments.
func (f *FakeCompleter) Stream(ctx context.Context, messages []models.Message) (Stream, error) {
	f.record(messages)
	if f.Err != nil && f.FailAfter == 0 {
		return nil, f.Err
	}
	return &fakeStream{ctx: ctx, fragments: f.Fragments, failAfter: f.FailAfter, err: f.Err}, nil
}

type fakeStream struct {
	ctx       context.Context
	fragments []string
	pos       int
	failAfter int
	err       error
}

func (s *fakeStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.err != nil && s.pos >= s.failAfter {
		return "", s.err
	}
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *fakeStream) Close() error {
	return nil
}
