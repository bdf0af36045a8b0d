package vector

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tebiki/internal/models"
)

func benchIndex(b *testing.B, n, dims int) *FlatIndex {
	b.Helper()
	idx, err := NewFlatIndex(dims)
	if err != nil {
		b.Fatal(err)
	}
	vecs := make([][]float32, n)
	recs := make([]models.ChunkRecord, n)
	for i := 0; i < n; i++ {
		vecs[i] = make([]float32, dims)
		vecs[i][i%dims] = float32(i) / float32(n)
		recs[i] = models.ChunkRecord{Manual: "bench", Path: fmt.Sprintf("bench/images/%04d.jpg", i), Text: "page"}
	}
	idx.Add(vecs, recs)
	return idx
}

func BenchmarkFlatIndexSearch(b *testing.B) {
	idx := benchIndex(b, 1000, 384)
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(query, 5)
	}
}

func BenchmarkFlatIndexLoad(b *testing.B) {
	idx := benchIndex(b, 1000, 384)
	path := filepath.Join(b.TempDir(), IndexFileName)
	if err := idx.Save(path); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadFlatIndex(path); err != nil {
			b.Fatal(err)
		}
	}
}
