package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/tebiki/internal/models"
)

// FlatIndex holds embeddings and their chunk records in parallel slices: vectors[i]
// belongs to records[i]. Insertion is the only mutation.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	records    []models.ChunkRecord
	mu         sync.RWMutex
}

// Hit is a search result with its distance to the query.
type Hit struct {
	Record   models.ChunkRecord
	Distance float64
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Add appends embeddings and records in lock-step. Mismatched lengths or a vector of the
// wrong dimension is a programming error and panics.
func (f *FlatIndex) Add(embeddings [][]float32, records []models.ChunkRecord) {
	if len(embeddings) != len(records) {
		panic(fmt.Sprintf("vector: %d embeddings for %d records", len(embeddings), len(records)))
	}
	for i, vec := range embeddings {
		if len(vec) != f.dimensions {
			panic(fmt.Sprintf("vector: embedding %d has dimension %d, index expects %d", i, len(vec), f.dimensions))
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, vec := range embeddings {
		cp := make([]float32, f.dimensions)
		copy(cp, vec)
		f.vectors = append(f.vectors, cp)
		f.records = append(f.records, records[i])
	}
}

// Search returns up to topK records nearest to query by L2 distance, nearest first.
// Equal distances keep insertion order.
func (f *FlatIndex) Search(query []float32, topK int) ([]models.ChunkRecord, error) {
	hits, err := f.SearchWithDistances(query, topK)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChunkRecord, len(hits))
	for i, h := range hits {
		out[i] = h.Record
	}
	return out, nil
}

// SearchWithDistances is Search with the L2 distance of every hit.
func (f *FlatIndex) SearchWithDistances(query []float32, topK int) ([]Hit, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if topK <= 0 || len(f.vectors) == 0 {
		return []Hit{}, nil
	}
	type scored struct {
		pos  int
		dist float64
	}
	scores := make([]scored, len(f.vectors))
	for i, vec := range f.vectors {
		scores[i] = scored{pos: i, dist: SquaredL2(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	if topK > len(scores) {
		topK = len(scores)
	}
	hits := make([]Hit, topK)
	for i := 0; i < topK; i++ {
		hits[i] = Hit{Record: f.records[scores[i].pos], Distance: math.Sqrt(scores[i].dist)}
	}
	return hits, nil
}

// Size returns the number of entries.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.records)
}

// Dimensions returns the vector size the index accepts.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Records returns a copy of the records in insertion order.
func (f *FlatIndex) Records() []models.ChunkRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.ChunkRecord(nil), f.records...)
}

const (
	fileMagic   = "TBKV"
	fileVersion = uint32(1)
	// maxStringLen bounds decoded record fields so a corrupt length cannot allocate gigabytes.
	maxStringLen = 64 << 20
	// maxDimensions bounds the decoded vector size.
	maxDimensions = 1 << 16
	headerSize    = 4 * 4
	// minEntrySize is an entry with empty strings: three lengths and the chunk index.
	minEntrySize = 4 * 4
)

// Save writes the index to path, creating the directory if needed. The file is written to a
// temporary name and renamed so readers never observe a partial index.
//
// Format (little endian): magic "TBKV", version, dimensions, count (uint32 each), then per
// entry: manual, path, text (uint32 length + bytes), chunk index (uint32), vector
// (dimensions float32s).
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := f.encode(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (f *FlatIndex) encode(w io.Writer) error {
	if _, err := io.WriteString(w, fileMagic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	for _, v := range []uint32{fileVersion, uint32(f.dimensions), uint32(len(f.records))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, rec := range f.records {
		for _, s := range []string{rec.Manual, rec.Path, rec.Text} {
			if err := writeString(w, s); err != nil {
				return fmt.Errorf("write record %d: %w", i, err)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(rec.ChunkIndex)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
		if _, err := w.Write(float32SliceToBytes(f.vectors[i])); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}
	return nil
}

// LoadFlatIndex reads an index written by Save. Any decoding failure, including trailing
// bytes after the last entry, is reported as ErrCorruptIndex.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	idx, err := decode(bufio.NewReader(file), info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptIndex, path, err)
	}
	return idx, nil
}

// decode reads an index of size bytes. Header counts are checked against size before
// anything is allocated.
func decode(r *bufio.Reader, size int64) (*FlatIndex, error) {
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != fileMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version, dim, n uint32
	for _, p := range []*uint32{&version, &dim, &n} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != fileVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	if dim == 0 {
		return nil, errors.New("zero dimensions")
	}
	if dim > maxDimensions {
		return nil, fmt.Errorf("%d dimensions exceeds limit %d", dim, maxDimensions)
	}
	if need := headerSize + uint64(n)*(uint64(dim)*4+minEntrySize); need > uint64(size) {
		return nil, fmt.Errorf("%d entries of %d dimensions need at least %d bytes, file has %d", n, dim, need, size)
	}
	idx := &FlatIndex{dimensions: int(dim)}
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		var fields [3]string
		for j := range fields {
			s, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("read record %d: %w", i, err)
			}
			fields[j] = s
		}
		var chunkIndex uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkIndex); err != nil {
			return nil, fmt.Errorf("read record %d: %w", i, err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		idx.records = append(idx.records, models.ChunkRecord{
			Manual:     fields[0],
			Path:       fields[1],
			Text:       fields[2],
			ChunkIndex: int(chunkIndex),
		})
		idx.vectors = append(idx.vectors, bytesToFloat32Slice(buf))
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, errors.New("trailing data after last entry")
	}
	if len(idx.vectors) != len(idx.records) {
		return nil, fmt.Errorf("%d vectors for %d records", len(idx.vectors), len(idx.records))
	}
	return idx, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d too large", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
