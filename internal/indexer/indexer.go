// Package indexer turns manual pages into chunk records and chunk records into one
// persisted vector index per manual.
package indexer

import (
	"go.uber.org/zap"
)

// DefaultWorkers bounds the number of pages or manuals processed concurrently.
const DefaultWorkers = 4

type options struct {
	workers int
	logger  *zap.Logger
}

// Option configures a RecordCreator or a Builder.
type Option func(*options)

// WithLogger sets a logger for progress and per-item failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWorkers sets the worker pool size. Non-positive values fall back to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func newOptions(opts []Option) options {
	o := options{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
