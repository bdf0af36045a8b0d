package embedding

import (
	"context"

	"github.com/hyperjump/tebiki/internal/resilience"
)

// resilientEmbedder runs remote embedding calls through a resilience policy.
type resilientEmbedder struct {
	Embedder
	policy *resilience.Policy
}

// WithPolicy wraps e so Embed and EmbedBatch go through p.
func WithPolicy(e Embedder, p *resilience.Policy) Embedder {
	return &resilientEmbedder{Embedder: e, policy: p}
}

func (r *resilientEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return resilience.Call(ctx, r.policy, func(ctx context.Context) ([]float32, error) {
		return r.Embedder.Embed(ctx, text)
	})
}

func (r *resilientEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return resilience.Call(ctx, r.policy, func(ctx context.Context) ([][]float32, error) {
		return r.Embedder.EmbedBatch(ctx, texts)
	})
}
