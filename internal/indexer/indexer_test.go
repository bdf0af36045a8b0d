package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/tebiki/internal/embedding"
	"github.com/hyperjump/tebiki/internal/extract"
	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/vector"
)

// mapExtractor serves page text from a map keyed by file base name.
type mapExtractor struct {
	texts map[string]string
	fail  map[string]bool
}

func (m mapExtractor) Extract(ctx context.Context, path string) (string, error) {
	base := filepath.Base(path)
	if m.fail[base] {
		return "", fmt.Errorf("ocr failed for %s", base)
	}
	return m.texts[base], nil
}

func testPages() []extract.Page {
	return []extract.Page{
		{Manual: "pump", Path: "pump/images/p2.jpg"},
		{Manual: "drill", Path: "drill/images/a.jpg"},
		{Manual: "pump", Path: "pump/images/p1.jpg"},
		{Manual: "pump", Path: "pump/images/p3.jpg"},
		{Manual: "pump", Path: "pump/images/blank.jpg"},
	}
}

func TestRecordCreator_Create(t *testing.T) {
	ex := mapExtractor{
		texts: map[string]string{
			"p1.jpg":    "Open the valve. Check the   pressure gauge.",
			"p2.jpg":    "Replace the filter every month.",
			"a.jpg":     "Drill bits are sold sepa-\nrately.",
			"blank.jpg": "   \n ",
		},
		fail: map[string]bool{"p3.jpg": true},
	}
	c := NewRecordCreator(ex, newTestChunker(5, 0), "/docs", "🦒", WithWorkers(2))
	report, err := c.Create(context.Background(), testPages())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []models.ChunkRecord{
		{Manual: "drill", Path: "drill/images/a.jpg", ChunkIndex: 0, Text: "Drill bits are sold separately."},
		{Manual: "pump", Path: "pump/images/p1.jpg", ChunkIndex: 0, Text: "Open the valve."},
		{Manual: "pump", Path: "pump/images/p1.jpg", ChunkIndex: 1, Text: "Check the pressure gauge."},
		{Manual: "pump", Path: "pump/images/p2.jpg", ChunkIndex: 0, Text: "Replace the filter every month."},
	}
	if !reflect.DeepEqual(report.Records, want) {
		t.Errorf("records:\n got %+v\nwant %+v", report.Records, want)
	}
	if report.Pages != 5 || len(report.Failed) != 1 || report.Skipped != 1 || report.Succeeded() != 3 {
		t.Errorf("report counts: pages=%d failed=%d skipped=%d", report.Pages, len(report.Failed), report.Skipped)
	}
	if len(report.Failed) == 1 && report.Failed[0].Path != "pump/images/p3.jpg" {
		t.Errorf("failed page = %s", report.Failed[0].Path)
	}
	if strings.Join(report.Manuals, ",") != "drill,pump" {
		t.Errorf("manuals = %v", report.Manuals)
	}
}

func TestRecordCreator_RejectsDelimiterInCorpus(t *testing.T) {
	ex := mapExtractor{texts: map[string]string{"p1.jpg": "A giraffe 🦒 on page one."}}
	c := NewRecordCreator(ex, newTestChunker(50, 0), "/docs", "🦒")
	_, err := c.Create(context.Background(), []extract.Page{{Manual: "pump", Path: "pump/images/p1.jpg"}})
	if !errors.Is(err, ErrDelimiterInCorpus) {
		t.Errorf("err = %v, want ErrDelimiterInCorpus", err)
	}
}

func TestRecordCreator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewRecordCreator(mapExtractor{}, newTestChunker(50, 0), "/docs", "")
	if _, err := c.Create(ctx, testPages()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestValidateDelimiter(t *testing.T) {
	recs := []models.ChunkRecord{{Path: "a", Text: "plain"}, {Path: "b", Text: "has ### inside"}}
	if err := ValidateDelimiter(recs, "🦒"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDelimiter(recs, "###"); !errors.Is(err, ErrDelimiterInCorpus) {
		t.Errorf("err = %v", err)
	}
	if err := ValidateDelimiter(recs, ""); err != nil {
		t.Errorf("empty delimiter: %v", err)
	}
}

// failingEmbedder fails EmbedBatch whenever a text contains "boom".
type failingEmbedder struct {
	*embedding.HashEmbedder
	calls atomic.Int32
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	for _, t := range texts {
		if strings.Contains(t, "boom") {
			return nil, errors.New("embedding service down")
		}
	}
	return f.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestBuilder_Build(t *testing.T) {
	root := t.TempDir()
	store := vector.NewStore(root)
	emb := &failingEmbedder{HashEmbedder: embedding.NewHashEmbedder(16)}
	records := []models.ChunkRecord{
		{Manual: "pump", Path: "pump/images/p1.jpg", ChunkIndex: 0, Text: "open the valve"},
		{Manual: "drill", Path: "drill/images/a.jpg", ChunkIndex: 0, Text: "boom"},
		{Manual: "pump", Path: "pump/images/p1.jpg", ChunkIndex: 1, Text: "check the gauge"},
		{Manual: "saw", Path: "saw/images/s.jpg", ChunkIndex: 0, Text: "sharpen the blade"},
	}
	report := NewBuilder(emb, store, WithWorkers(2)).Build(context.Background(), records, nil)

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d", report.Succeeded, report.Failed)
	}
	if got := emb.calls.Load(); got != 3 {
		t.Errorf("EmbedBatch calls = %d, want one per manual", got)
	}
	if report.Results[0].Manual != "drill" || report.Results[0].Err == nil {
		t.Errorf("drill result = %+v", report.Results[0])
	}
	if report.Err() == nil {
		t.Error("report.Err() should surface the drill failure")
	}
	pump := report.Results[1]
	if pump.Manual != "pump" || pump.Chunks != 2 || pump.Err != nil {
		t.Errorf("pump result = %+v", pump)
	}
	if _, err := os.Stat(pump.Path); err != nil {
		t.Errorf("index file: %v", err)
	}

	idx, err := store.Load("pump")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Size() != 2 || idx.Dimensions() != 16 {
		t.Errorf("size=%d dims=%d", idx.Size(), idx.Dimensions())
	}
	q, _ := emb.Embed(context.Background(), "check the gauge")
	hits, err := idx.Search(q, 1)
	if err != nil || len(hits) != 1 || hits[0].ChunkIndex != 1 {
		t.Errorf("Search = %+v, %v", hits, err)
	}
	if _, err := store.Load("drill"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("drill index should not exist: %v", err)
	}
}

func TestBuilder_BuildEmptyManual(t *testing.T) {
	store := vector.NewStore(t.TempDir())
	report := NewBuilder(embedding.NewHashEmbedder(8), store).Build(context.Background(), nil, []string{"empty"})
	if report.Succeeded != 1 {
		t.Fatalf("report = %+v", report.Results)
	}
	idx, err := store.Load("empty")
	if err != nil || idx.Size() != 0 {
		t.Errorf("Load = %v, %v", idx, err)
	}
}

func TestBuilder_InvalidManual(t *testing.T) {
	store := vector.NewStore(t.TempDir())
	report := NewBuilder(embedding.NewHashEmbedder(8), store).Build(context.Background(), nil, []string{"../escape"})
	if report.Failed != 1 || !errors.Is(report.Results[0].Err, vector.ErrInvalidManual) {
		t.Errorf("report = %+v", report.Results)
	}
}

func TestManualsOf(t *testing.T) {
	recs := []models.ChunkRecord{{Manual: "b"}, {Manual: "a"}, {Manual: "b"}}
	if got := strings.Join(ManualsOf(recs), ","); got != "a,b" {
		t.Errorf("ManualsOf = %s", got)
	}
}
