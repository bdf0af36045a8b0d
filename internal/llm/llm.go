// Package llm adapts chat completion services (OpenAI, Gemini) to a single streaming interface.
package llm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/tebiki/internal/config"
	"github.com/hyperjump/tebiki/internal/models"
)

// Completer sends a role-tagged conversation to a completion service.
type Completer interface {
	// Complete returns the full response text.
	Complete(ctx context.Context, messages []models.Message) (string, error)
	// Stream returns the response as incremental fragments whose concatenation is the
	// full response.
	Stream(ctx context.Context, messages []models.Message) (Stream, error)
}

// Stream yields response fragments in order. Recv returns io.EOF after the last fragment.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// New builds the completer selected by cfg.Provider. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func New(ctx context.Context, cfg *config.CompletionConfig) (Completer, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s environment variable not set", cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAI(OpenAIOptions{
			APIKey:      key,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	case "gemini":
		return NewGemini(ctx, GeminiOptions{
			APIKey:      key,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown completion provider: %s (supported: openai, gemini)", cfg.Provider)
	}
}

// Drain reads s to the end and returns the concatenated fragments. On error the text
// received so far is returned with it.
func Drain(s Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		frag, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
}
