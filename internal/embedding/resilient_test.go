package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/tebiki/internal/config"
	"github.com/hyperjump/tebiki/internal/resilience"
)

type flakyEmbedder struct {
	*HashEmbedder
	failures int
	calls    int
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("503 from embedding service")
	}
	return f.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestWithPolicy_RetriesBatch(t *testing.T) {
	inner := &flakyEmbedder{HashEmbedder: NewHashEmbedder(8), failures: 2}
	p := resilience.New("embedding", config.ResilienceConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		BreakerTimeout: time.Minute,
	})
	e := WithPolicy(inner, p)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 || inner.calls != 3 {
		t.Errorf("vecs=%d calls=%d", len(vecs), inner.calls)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
}
