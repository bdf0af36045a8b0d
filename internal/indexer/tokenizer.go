package indexer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens the way the completion model will see them.
// Implementations are loaded once at startup and shared read-only.
type Tokenizer interface {
	Count(text string) int
}

// WordTokenizer counts whitespace-separated words. Used when no BPE encoding is available.
type WordTokenizer struct{}

// Count returns the number of whitespace-separated fields in text.
func (WordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// TiktokenTokenizer counts BPE tokens for an OpenAI model.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the encoding used by model (e.g. "gpt-4o-mini").
// Unknown models fall back to the o200k_base encoding.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("o200k_base")
		if err != nil {
			return nil, fmt.Errorf("load encoding for %q: %w", model, err)
		}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// NewTokenizer returns the tokenizer named by kind ("tiktoken" or "words").
func NewTokenizer(kind, model string) (Tokenizer, error) {
	switch kind {
	case "tiktoken", "":
		return NewTiktokenTokenizer(model)
	case "words":
		return WordTokenizer{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s (supported: tiktoken, words)", kind)
	}
}
