// Package assistant answers questions about one manual at a time: it retrieves the nearest
// chunks, builds a grounded prompt, streams the completion and splits it into the visible
// answer and its page citations.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/tebiki/internal/config"
	"github.com/hyperjump/tebiki/internal/embedding"
	"github.com/hyperjump/tebiki/internal/llm"
	"github.com/hyperjump/tebiki/internal/models"
	"go.uber.org/zap"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Searcher is a read-only nearest-neighbour index over one manual.
type Searcher interface {
	Search(query []float32, topK int) ([]models.ChunkRecord, error)
}

// Assistant is stateless across questions; conversation state is passed in and returned.
// It is safe for concurrent use by sessions on different conversations.
type Assistant struct {
	embedder  embedding.Embedder
	completer llm.Completer
	topK      int
	delimiter string
	dedupe    bool
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(a *Assistant) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithDelimiter sets the marker separating the answer from its sources.
func WithDelimiter(d string) Option {
	return func(a *Assistant) {
		if d != "" {
			a.delimiter = d
		}
	}
}

// WithDedupeCitations drops repeated paths when parsing citations.
func WithDedupeCitations(on bool) Option {
	return func(a *Assistant) { a.dedupe = on }
}

// WithTimeout bounds each question, retrieval and completion included. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

// WithLogger sets a logger for debug output (retrieval, completion timing).
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// FromConfig returns the options described by cfg.
func FromConfig(cfg *config.AssistantConfig) []Option {
	return []Option{WithTopK(cfg.TopK), WithDelimiter(cfg.Delimiter), WithDedupeCitations(cfg.DedupeCitations)}
}

// New creates an assistant.
func New(embedder embedding.Embedder, completer llm.Completer, opts ...Option) *Assistant {
	a := &Assistant{
		embedder:  embedder,
		completer: completer,
		topK:      DefaultTopK,
		delimiter: config.DefaultDelimiter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Delimiter returns the answer/sources marker.
func (a *Assistant) Delimiter() string {
	return a.delimiter
}

// Result is one answered question and the conversation that includes it.
type Result struct {
	Answer models.Answer
	// State is the conversation after the exchange; the caller stores it for the next turn.
	State models.ConversationState
	// Context holds the retrieved chunks, nearest first.
	Context []models.ChunkRecord
}

// Retrieve embeds query and returns the nearest chunks in index.
func (a *Assistant) Retrieve(ctx context.Context, index Searcher, query string) ([]models.ChunkRecord, error) {
	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	chunks, err := index.Search(vec, a.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if a.logger != nil {
		a.logger.Debug("assistant retrieved chunks", zap.Int("count", len(chunks)), zap.Strings("paths", UniquePaths(chunks)))
	}
	return chunks, nil
}

// turn is a question ready for the completion service, or already answered by the fallback.
type turn struct {
	state    models.ConversationState
	chunks   []models.ChunkRecord
	fallback bool
}

// prepare retrieves context and appends the user turn (after the system instruction on a
// fresh conversation). With no context the fallback exchange is recorded instead.
func (a *Assistant) prepare(ctx context.Context, index Searcher, state models.ConversationState, query string) (*turn, error) {
	chunks, err := a.Retrieve(ctx, index, query)
	if err != nil {
		return nil, err
	}
	t := &turn{state: state.Clone(), chunks: chunks}
	t.state.EnsureSystem(SystemPrompt)
	if len(chunks) == 0 {
		t.fallback = true
		t.state.Append(models.RoleUser, query)
		t.state.Append(models.RoleAssistant, FallbackAnswer)
		return t, nil
	}
	t.state.Append(models.RoleUser, BuildUserPrompt(query, chunks, a.delimiter))
	return t, nil
}

func (a *Assistant) fallbackResult(t *turn) *Result {
	return &Result{
		Answer:  models.Answer{Visible: FallbackAnswer, Raw: FallbackAnswer, Fallback: true},
		State:   t.state,
		Context: t.chunks,
	}
}

// finish records the raw completion as the assistant turn and builds the answer.
func (a *Assistant) finish(t *turn, s *StreamSplitter) *Result {
	t.state.Append(models.RoleAssistant, s.Raw())
	visible := strings.TrimSpace(s.Visible())
	return &Result{
		Answer: models.Answer{
			Visible:   visible,
			Citations: ParseCitations(s.Sources(), a.dedupe),
			Raw:       s.Raw(),
			Fallback:  strings.Contains(visible, FallbackAnswer),
		},
		State:   t.state,
		Context: t.chunks,
	}
}

// Answer answers query with a single blocking completion call. On error the returned
// result is nil and state is untouched.
func (a *Assistant) Answer(ctx context.Context, index Searcher, state models.ConversationState, query string) (*Result, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	t, err := a.prepare(ctx, index, state, query)
	if err != nil {
		return nil, err
	}
	if t.fallback {
		return a.fallbackResult(t), nil
	}
	text, err := a.completer.Complete(ctx, t.state.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	s := NewStreamSplitter(a.delimiter)
	s.Write(text)
	s.Flush()
	return a.finish(t, s), nil
}

// Stream answers query, forwarding visible answer text to onToken in arrival order.
// Source text after the delimiter is buffered, never forwarded. The assistant turn is
// recorded only after the stream is drained.
//
// If the completion fails after streaming began, the text already delivered stands: a
// notice is forwarded to onToken, the partial completion is recorded, and the result is
// returned together with a *StreamError.
func (a *Assistant) Stream(ctx context.Context, index Searcher, state models.ConversationState, query string, onToken func(string)) (*Result, error) {
	if onToken == nil {
		onToken = func(string) {}
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	t, err := a.prepare(ctx, index, state, query)
	if err != nil {
		return nil, err
	}
	if t.fallback {
		onToken(FallbackAnswer)
		return a.fallbackResult(t), nil
	}

	stream, err := a.completer.Stream(ctx, t.state.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("open completion stream: %w", err)
	}
	defer stream.Close()

	s := NewStreamSplitter(a.delimiter)
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if out := s.Flush(); out != "" {
				onToken(out)
			}
			onToken(InterruptionNotice(err))
			if a.logger != nil {
				a.logger.Warn("completion stream interrupted", zap.Error(err))
			}
			res := a.finish(t, s)
			return res, &StreamError{Partial: res.Answer.Visible, Err: err}
		}
		if out := s.Write(frag); out != "" {
			onToken(out)
		}
	}
	if out := s.Flush(); out != "" {
		onToken(out)
	}
	return a.finish(t, s), nil
}

func (a *Assistant) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// InterruptionNotice is the text appended to a partially streamed answer.
func InterruptionNotice(err error) string {
	return fmt.Sprintf("\n\n[answer interrupted: %v]", err)
}
