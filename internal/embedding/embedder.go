// Package embedding turns text into fixed-dimension vectors: local ONNX models, the OpenAI
// embeddings API, or a deterministic hashing embedder for tests.
//
// Embedders are constructed once at process start and shared read-only.
package embedding

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/hyperjump/tebiki/internal/config"
)

// Embedder produces vector embeddings for text. EmbedBatch preserves input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder selected by cfg.Provider. ONNX embedders are wrapped in an LRU
// cache of cfg.CacheSize entries.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "onnx", "":
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:  cfg.ModelPath,
			VocabPath:  cfg.VocabPath,
			OutputName: cfg.OutputName,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return NewCachedEmbedder(e, cfg.CacheSize), nil
	case "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("%s environment variable not set", cfg.APIKeyEnv)
		}
		return NewOpenAIEmbedder(OpenAIOptions{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, hash)", cfg.Provider)
	}
}

// NormalizeL2Slice normalizes the slice in place to unit L2 norm.
func NormalizeL2Slice(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
