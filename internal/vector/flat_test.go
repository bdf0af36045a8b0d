package vector

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/tebiki/internal/models"
)

func rec(path string, i int) models.ChunkRecord {
	return models.ChunkRecord{Manual: "m1", Path: path, ChunkIndex: i, Text: path + " text"}
}

func paths(recs []models.ChunkRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Path
	}
	return out
}

func TestFlatIndex_Search(t *testing.T) {
	idx, err := NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(
		[][]float32{{0, 0}, {3, 4}, {1, 0}, {0, 2}},
		[]models.ChunkRecord{rec("origin", 0), rec("far", 0), rec("near", 0), rec("mid", 0)},
	)

	tests := []struct {
		name  string
		query []float32
		k     int
		want  []string
	}{
		{"nearest first", []float32{0, 0}, 3, []string{"origin", "near", "mid"}},
		{"k larger than size returns all", []float32{0, 0}, 10, []string{"origin", "near", "mid", "far"}},
		{"different query", []float32{3, 3}, 2, []string{"far", "mid"}},
		{"zero k", []float32{0, 0}, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(tt.query, tt.k)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(paths(got), tt.want) {
				t.Errorf("Search() = %v, want %v", paths(got), tt.want)
			}
		})
	}
}

func TestFlatIndex_SearchTiesKeepInsertionOrder(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	idx.Add(
		[][]float32{{1, 0}, {0, 1}, {-1, 0}, {0, -1}},
		[]models.ChunkRecord{rec("a", 0), rec("b", 0), rec("c", 0), rec("d", 0)},
	)
	got, err := idx.Search([]float32{0, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(paths(got), want) {
		t.Errorf("Search() = %v, want %v", paths(got), want)
	}
}

func TestFlatIndex_SearchEmpty(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	got, err := idx.Search([]float32{1, 2, 3}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty index returned %d results", len(got))
	}
}

func TestFlatIndex_SearchDimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	if _, err := idx.Search([]float32{1}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFlatIndex_SearchWithDistances(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	idx.Add([][]float32{{3, 4}}, []models.ChunkRecord{rec("p", 0)})
	hits, err := idx.SearchWithDistances([]float32{0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Distance != 5 {
		t.Errorf("hits = %+v, want distance 5", hits)
	}
}

func TestFlatIndex_AddPanicsOnMismatch(t *testing.T) {
	tests := []struct {
		name string
		vecs [][]float32
		recs []models.ChunkRecord
	}{
		{"length mismatch", [][]float32{{1, 0}}, nil},
		{"dimension mismatch", [][]float32{{1, 0, 0}}, []models.ChunkRecord{rec("x", 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _ := NewFlatIndex(2)
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
				if idx.Size() != 0 {
					t.Errorf("index mutated on failed add: size %d", idx.Size())
				}
			}()
			idx.Add(tt.vecs, tt.recs)
		})
	}
}

func TestFlatIndex_ParallelArrays(t *testing.T) {
	idx, _ := NewFlatIndex(1)
	for i := 0; i < 5; i++ {
		idx.Add([][]float32{{float32(i)}, {float32(i) + 0.5}}, []models.ChunkRecord{rec("p", 2*i), rec("p", 2*i+1)})
	}
	if idx.Size() != 10 || len(idx.Records()) != 10 {
		t.Fatalf("size %d records %d", idx.Size(), len(idx.Records()))
	}
	got, _ := idx.Search([]float32{2.5}, 1)
	if got[0].ChunkIndex != 5 {
		t.Errorf("nearest chunk = %d, want 5", got[0].ChunkIndex)
	}
}

func TestNewFlatIndex_InvalidDimensions(t *testing.T) {
	if _, err := NewFlatIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m1", IndexFileName)
	idx, _ := NewFlatIndex(3)
	idx.Add(
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]models.ChunkRecord{
			{Manual: "m1", Path: "docs/m1/images/p1.jpg", ChunkIndex: 0, Text: "Turn the knob."},
			{Manual: "m1", Path: "docs/m1/images/p2.jpg", ChunkIndex: 3, Text: "Unicode ✓ text."},
		},
	)
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Dimensions() != 3 || loaded.Size() != 2 {
		t.Fatalf("loaded dims %d size %d", loaded.Dimensions(), loaded.Size())
	}
	if !reflect.DeepEqual(loaded.Records(), idx.Records()) {
		t.Errorf("records differ: %+v", loaded.Records())
	}
	got, _ := loaded.Search([]float32{0, 1, 0}, 1)
	if got[0].Path != "docs/m1/images/p2.jpg" {
		t.Errorf("search after load = %v", got)
	}
}

func TestLoadFlatIndex_Corrupt(t *testing.T) {
	dir := t.TempDir()
	idx, _ := NewFlatIndex(2)
	idx.Add([][]float32{{1, 2}}, []models.ChunkRecord{rec("p", 0)})
	good := filepath.Join(dir, "good.vdb")
	if err := idx.Save(good); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(good)

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
		{"truncated", data[:len(data)-3]},
		{"trailing bytes", append(append([]byte(nil), data...), 0)},
		{"empty", nil},
		{"huge dimension", header(1, 0xFFFFFFFF, 1)},
		{"count beyond file size", header(1, 2, 1<<30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".vdb")
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFlatIndex(path); !errors.Is(err, ErrCorruptIndex) {
				t.Errorf("expected ErrCorruptIndex, got %v", err)
			}
		})
	}
}

// header encodes a file header with no entries after it.
func header(version, dim, n uint32) []byte {
	b := []byte(fileMagic)
	for _, v := range []uint32{version, dim, n} {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func TestLoadFlatIndex_Missing(t *testing.T) {
	_, err := LoadFlatIndex(filepath.Join(t.TempDir(), "none.vdb"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
