// Package storage persists the corpus-wide chunk records that indexes are built from.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/tebiki/internal/models"
)

// RecordStore holds the records file: every chunk record of every manual, in
// (manual, path, chunk index) order.
type RecordStore interface {
	// SaveRecords replaces the whole record set.
	SaveRecords(ctx context.Context, records []models.ChunkRecord) error
	// ListRecords returns the records of manual, or of every manual when manual is empty.
	ListRecords(ctx context.Context, manual string) ([]models.ChunkRecord, error)
	ListManuals(ctx context.Context) ([]ManualStats, error)
	CountRecords(ctx context.Context) (int64, error)
	// UpdatedAt returns when the record set was last saved; zero if never.
	UpdatedAt(ctx context.Context) (time.Time, error)

	Close() error
}

// ManualStats summarizes one manual's records.
type ManualStats struct {
	Manual  string `json:"manual"`
	Pages   int    `json:"pages"`
	Records int    `json:"records"`
}
