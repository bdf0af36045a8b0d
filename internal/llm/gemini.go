package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/hyperjump/tebiki/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiOptions configures the Gemini chat completer.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Gemini is a Completer backed by the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGemini creates a Gemini completer. Model defaults to gemini-1.5-flash.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}
	return &Gemini{client: client, model: opts.Model, temperature: opts.Temperature, maxTokens: opts.MaxTokens}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// chat maps the conversation onto a Gemini chat session: system messages become the
// system instruction, earlier turns become history, and the final user turn is returned
// as the message to send.
func (g *Gemini) chat(messages []models.Message) (*genai.ChatSession, genai.Text, error) {
	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleUser {
		return nil, "", errors.New("gemini: conversation must end with a user message")
	}
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.maxTokens))
	}
	var system []string
	cs := model.StartChat()
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			cs.History = append(cs.History, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			cs.History = append(cs.History, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	return cs, genai.Text(messages[len(messages)-1].Content), nil
}

// Complete sends the conversation and returns the response text.
func (g *Gemini) Complete(ctx context.Context, messages []models.Message) (string, error) {
	cs, last, err := g.chat(messages)
	if err != nil {
		return "", err
	}
	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return responseText(resp), nil
}

// Stream sends the conversation and streams the response.
func (g *Gemini) Stream(ctx context.Context, messages []models.Message) (Stream, error) {
	cs, last, err := g.chat(messages)
	if err != nil {
		return nil, err
	}
	return &geminiStream{iter: cs.SendMessageStream(ctx, last)}, nil
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) Close() error {
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String()
}
