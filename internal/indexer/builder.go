package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/tebiki/internal/embedding"
	"github.com/hyperjump/tebiki/internal/models"
	"github.com/hyperjump/tebiki/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ManualResult is the outcome of building one manual's index.
type ManualResult struct {
	Manual   string
	Path     string
	Chunks   int
	Err      error
	Duration time.Duration
}

// BuildReport collects per-manual results in manual order.
type BuildReport struct {
	Results   []ManualResult
	Succeeded int
	Failed    int
}

// Err returns the first manual failure, or nil.
func (r *BuildReport) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return fmt.Errorf("manual %s: %w", res.Manual, res.Err)
		}
	}
	return nil
}

// Builder embeds each manual's records and persists one flat index per manual.
type Builder struct {
	embedder embedding.Embedder
	store    *vector.Store
	opts     options
}

// NewBuilder creates a builder writing indexes into store.
func NewBuilder(embedder embedding.Embedder, store *vector.Store, opts ...Option) *Builder {
	return &Builder{embedder: embedder, store: store, opts: newOptions(opts)}
}

// Build indexes every manual in manuals; nil manuals means every manual present in records.
// Manuals are built concurrently by a bounded pool and independently of one another: one
// manual's failure is recorded in its ManualResult and never stops the others.
func (b *Builder) Build(ctx context.Context, records []models.ChunkRecord, manuals []string) *BuildReport {
	if manuals == nil {
		manuals = ManualsOf(records)
	}
	results := make([]ManualResult, len(manuals))

	byManual := make(map[string][]models.ChunkRecord, len(manuals))
	for _, r := range records {
		byManual[r.Manual] = append(byManual[r.Manual], r)
	}

	var g errgroup.Group
	g.SetLimit(b.opts.workers)
	for i, manual := range manuals {
		g.Go(func() error {
			recs := byManual[manual]
			start := time.Now()
			path, err := b.buildManual(ctx, manual, recs)
			results[i] = ManualResult{Manual: manual, Path: path, Chunks: len(recs), Err: err, Duration: time.Since(start)}
			if err != nil {
				b.opts.logger.Error("index build failed", zap.String("manual", manual), zap.Error(err))
			} else {
				b.opts.logger.Info("index built",
					zap.String("manual", manual),
					zap.Int("chunks", len(recs)),
					zap.String("path", path),
					zap.Duration("took", results[i].Duration))
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &BuildReport{Results: results}
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report
}

func (b *Builder) buildManual(ctx context.Context, manual string, records []models.ChunkRecord) (string, error) {
	if err := vector.ValidateManual(manual); err != nil {
		return "", err
	}
	dims := b.embedder.Dimensions()
	idx, err := vector.NewFlatIndex(dims)
	if err != nil {
		return "", err
	}
	if len(records) > 0 {
		texts := make([]string, len(records))
		for i, r := range records {
			texts[i] = r.Text
		}
		embeddings, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("embed: %w", err)
		}
		if len(embeddings) != len(records) {
			return "", fmt.Errorf("embed: got %d embeddings for %d records", len(embeddings), len(records))
		}
		for i, e := range embeddings {
			if len(e) != dims {
				return "", fmt.Errorf("embed: embedding %d has dimension %d, want %d", i, len(e), dims)
			}
		}
		idx.Add(embeddings, records)
	}
	return b.store.Save(manual, idx)
}

// ManualsOf returns the sorted distinct manual names in records.
func ManualsOf(records []models.ChunkRecord) []string {
	manuals := models.ManualNames(records)
	sort.Strings(manuals)
	return manuals
}
