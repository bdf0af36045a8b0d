package indexer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// SentenceSegmenter splits text into sentences in reading order.
type SentenceSegmenter interface {
	Segment(text string) []string
}

// PunktSegmenter uses the pretrained English punkt model, which handles abbreviations
// ("e.g.", "Fig.", "No.") common in technical manuals.
type PunktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSegmenter loads the English punkt model.
func NewPunktSegmenter() (*PunktSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &PunktSegmenter{tokenizer: tok}, nil
}

// Segment returns the trimmed, non-empty sentences of text.
func (p *PunktSegmenter) Segment(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// sentenceRe matches a run of text up to and including terminal punctuation, or a trailing
// run with no terminator.
var sentenceRe = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)

// RuleSegmenter splits on terminal punctuation (. ! ?).
type RuleSegmenter struct{}

// Segment returns the trimmed, non-empty sentences of text.
func (RuleSegmenter) Segment(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewSegmenter returns the segmenter named by kind ("punkt" or "rules").
func NewSegmenter(kind string) (SentenceSegmenter, error) {
	switch kind {
	case "punkt", "":
		return NewPunktSegmenter()
	case "rules":
		return RuleSegmenter{}, nil
	default:
		return nil, fmt.Errorf("unknown segmenter: %s (supported: punkt, rules)", kind)
	}
}
