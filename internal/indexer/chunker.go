package indexer

import "strings"

// Default chunking budget, in tokens of the completion model's tokenizer.
const (
	DefaultMaxTokens     = 512
	DefaultOverlapTokens = 50
)

// Chunker splits page text into sentence-aligned chunks bounded by a token budget.
// Consecutive chunks share a trailing window of whole sentences of at most overlapTokens.
//
// The overlap window is also capped by the room left beside the sentence that opens the
// next chunk, so no chunk ever exceeds maxTokens. A chunker that always seeds the full
// overlapTokens window can emit chunks over the budget; outputs differ from one only on
// those chunks.
type Chunker struct {
	maxTokens     int
	overlapTokens int
	tokenizer     Tokenizer
	segmenter     SentenceSegmenter
}

// NewChunker creates a chunker with the given budget (in tokens) and capabilities.
// Non-positive maxTokens falls back to DefaultMaxTokens; negative overlap is treated as zero.
func NewChunker(maxTokens, overlapTokens int, tokenizer Tokenizer, segmenter SentenceSegmenter) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	return &Chunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		tokenizer:     tokenizer,
		segmenter:     segmenter,
	}
}

// Chunk splits text into chunks. Sentences longer than the budget on their own are dropped.
// Text without sentences yields nil.
func (c *Chunker) Chunk(text string) []string {
	var sentences []string
	for _, s := range c.segmenter.Segment(text) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks        []string
		current       []string
		currentCounts []int
		currentTokens int
	)
	for _, sentence := range sentences {
		n := c.tokenizer.Count(sentence)
		if n > c.maxTokens {
			continue
		}
		if currentTokens+n > c.maxTokens {
			chunks = append(chunks, strings.Join(current, " "))
			current, currentCounts, currentTokens = c.overlapWindow(current, currentCounts, c.maxTokens-n)
		}
		current = append(current, sentence)
		currentCounts = append(currentCounts, n)
		currentTokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// overlapWindow returns the longest suffix of sentences whose token total fits both
// overlapTokens and room, the space left beside the sentence that opens the next chunk.
func (c *Chunker) overlapWindow(sentences []string, counts []int, room int) ([]string, []int, int) {
	budget := min(c.overlapTokens, room)
	if budget <= 0 {
		return nil, nil, 0
	}
	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		if total+counts[i] > budget {
			break
		}
		total += counts[i]
		start = i
	}
	window := append([]string(nil), sentences[start:]...)
	windowCounts := append([]int(nil), counts[start:]...)
	return window, windowCounts, total
}
