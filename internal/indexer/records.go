package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/tebiki/internal/extract"
	"github.com/hyperjump/tebiki/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDelimiterInCorpus is returned when page text contains the answer delimiter, which
// would make answers impossible to split into text and sources.
var ErrDelimiterInCorpus = errors.New("corpus text contains the answer delimiter")

// PageFailure records a page that produced no records.
type PageFailure struct {
	Path string
	Err  error
}

// RecordsReport is the outcome of one record creation run.
type RecordsReport struct {
	Records []models.ChunkRecord
	Manuals []string
	Pages   int
	Failed  []PageFailure
	Skipped int // pages that extracted to no text
}

// Succeeded returns the number of pages that produced at least one record.
func (r *RecordsReport) Succeeded() int {
	return r.Pages - len(r.Failed) - r.Skipped
}

// RecordCreator extracts, normalizes, and chunks manual pages.
type RecordCreator struct {
	extractor extract.TextExtractor
	chunker   *Chunker
	docsDir   string
	delimiter string
	opts      options
}

// NewRecordCreator creates a record creator reading pages under docsDir. Page text that
// contains delimiter fails the whole run; an empty delimiter disables the check.
func NewRecordCreator(extractor extract.TextExtractor, chunker *Chunker, docsDir, delimiter string, opts ...Option) *RecordCreator {
	return &RecordCreator{
		extractor: extractor,
		chunker:   chunker,
		docsDir:   docsDir,
		delimiter: delimiter,
		opts:      newOptions(opts),
	}
}

type pageResult struct {
	records []models.ChunkRecord
	err     error
	empty   bool
}

// Create processes pages with a bounded worker pool. A page that fails extraction is
// skipped and reported; it never aborts the run. Records come back sorted by manual,
// then path, then chunk index.
func (c *RecordCreator) Create(ctx context.Context, pages []extract.Page) (*RecordsReport, error) {
	results := make([]pageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.workers)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := c.extractor.Extract(gctx, page.Abs(c.docsDir))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.opts.logger.Warn("page extraction failed", zap.String("path", page.Path), zap.Error(err))
				results[i].err = err
				return nil
			}
			text = Preprocess(text)
			if c.delimiter != "" && strings.Contains(text, c.delimiter) {
				return fmt.Errorf("%w: %q found in %s", ErrDelimiterInCorpus, c.delimiter, page.Path)
			}
			chunks := c.chunker.Chunk(text)
			if len(chunks) == 0 {
				results[i].empty = true
				return nil
			}
			recs := make([]models.ChunkRecord, len(chunks))
			for j, chunk := range chunks {
				recs[j] = models.ChunkRecord{Manual: page.Manual, Path: page.Path, ChunkIndex: j, Text: chunk}
			}
			results[i].records = recs
			c.opts.logger.Debug("page chunked", zap.String("path", page.Path), zap.Int("chunks", len(chunks)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &RecordsReport{Pages: len(pages)}
	seen := make(map[string]bool)
	for i, res := range results {
		switch {
		case res.err != nil:
			report.Failed = append(report.Failed, PageFailure{Path: pages[i].Path, Err: res.err})
		case res.empty:
			report.Skipped++
		default:
			report.Records = append(report.Records, res.records...)
		}
		if !seen[pages[i].Manual] {
			seen[pages[i].Manual] = true
			report.Manuals = append(report.Manuals, pages[i].Manual)
		}
	}
	SortRecords(report.Records)
	sort.Strings(report.Manuals)
	c.opts.logger.Info("records created",
		zap.Int("pages", report.Pages),
		zap.Int("failed", len(report.Failed)),
		zap.Int("skipped", report.Skipped),
		zap.Int("records", len(report.Records)))
	return report, nil
}

// SortRecords orders records by manual, path, then chunk index.
func SortRecords(records []models.ChunkRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Manual != b.Manual {
			return a.Manual < b.Manual
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.ChunkIndex < b.ChunkIndex
	})
}

// ValidateDelimiter returns ErrDelimiterInCorpus if any record text contains delimiter.
func ValidateDelimiter(records []models.ChunkRecord, delimiter string) error {
	if delimiter == "" {
		return nil
	}
	for _, r := range records {
		if strings.Contains(r.Text, delimiter) {
			return fmt.Errorf("%w: %q found in %s", ErrDelimiterInCorpus, delimiter, r.Path)
		}
	}
	return nil
}
