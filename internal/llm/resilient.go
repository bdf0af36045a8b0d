package llm

import (
	"context"

	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/resilience"
)

// resilientCompleter runs calls through a resilience policy. Only opening a stream is
// retried; a stream that fails after emitting fragments is reported to the caller.
type resilientCompleter struct {
	inner  Completer
	policy *resilience.Policy
}

// WithPolicy wraps c so every call goes through p.
func WithPolicy(c Completer, p *resilience.Policy) Completer {
	return &resilientCompleter{inner: c, policy: p}
}

func (r *resilientCompleter) Complete(ctx context.Context, messages []models.Message) (string, error) {
	return resilience.Call(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.inner.Complete(ctx, messages)
	})
}

func (r *resilientCompleter) Stream(ctx context.Context, messages []models.Message) (Stream, error) {
	return resilience.Call(ctx, r.policy, func(ctx context.Context) (Stream, error) {
		return r.inner.Stream(ctx, messages)
	})
}
