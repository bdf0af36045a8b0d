package indexer

import (
	"strings"
	"testing"
)

func BenchmarkChunker_Chunk(b *testing.B) {
	page := strings.Repeat("Loosen the two screws on the rear panel before lifting the cover. ", 200)
	c := NewChunker(512, 50, WordTokenizer{}, RuleSegmenter{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Chunk(page)
	}
}

func BenchmarkPreprocess(b *testing.B) {
	page := strings.Repeat("Replace the fil-\nter   every month.\n\n", 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Preprocess(page)
	}
}
