// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/respostas/access"
	"github.com/poiesic/respostas/ai"
	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/records"
)

// Source is the record store being re-embedded. records.Store implements it.
type Source interface {
	All(ctx context.Context, sess access.Session) ([]*core.Record, error)
	ApplyEmbeddings(ctx context.Context, sess access.Session, updates []records.EmbeddingUpdate) (int, error)
}

// Config holds configuration for the reembedding operation.
type Config struct {
	// All re-embeds every record instead of only stale ones
	All bool

	// BatchSize is the number of records sent per embedding request
	BatchSize int

	// PoolSize is the number of batches embedded concurrently
	PoolSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		PoolSize:       max(runtime.NumCPU()/2, 1),
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a run.
type Result struct {
	Total    int // records in the corpus
	Selected int // records chosen for re-embedding
	Applied  int // records whose embedding was replaced
	Elapsed  time.Duration
}

// Option configures a Reembedder.
type Option func(*Reembedder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// Reembedder recomputes embeddings for the records of a Source.
type Reembedder struct {
	source    Source
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
// Call Release when done.
func NewReembedder(source Source, embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) (*Reembedder, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	pool, err := ants.NewPool(max(config.PoolSize, 1))
	if err != nil {
		return nil, err
	}

	r := &Reembedder{
		source:    source,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, max(config.MaxRetries, 1), config.RetryDelay),
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			pool.Release()
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reembed")
	return r, nil
}

// Release stops the worker pool.
func (r *Reembedder) Release() {
	r.pool.Release()
}

// Run re-embeds the selected records. Nothing is stored unless every batch was
// embedded. If storing fails part way, Result.Applied counts the records that
// were updated.
func (r *Reembedder) Run(ctx context.Context, sess access.Session) (*Result, error) {
	all, err := r.source.All(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	result := &Result{Total: len(all)}
	var selected []records.Entry
	for i, record := range all {
		if r.config.All || record.Stale() {
			selected = append(selected, records.Entry{Position: i, Record: record})
		}
	}
	result.Selected = len(selected)

	if len(selected) == 0 {
		fmt.Fprintf(r.progress, "No records need re-embedding (%d records)\n", len(all))
		return result, nil
	}

	iter := NewBatchIterator(selected, r.config.BatchSize)
	fmt.Fprintf(r.progress, "Re-embedding %d of %d records (%d batches)\n", len(selected), len(all), iter.Len())

	tracker := NewProgressTracker(r.progress, len(selected), r.config.ReportInterval)
	tracker.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		updates  = make([]records.EmbeddingUpdate, 0, len(selected))
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	err = iter.ForEach(ctx, func(batch []records.Entry) error {
		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()
			batchUpdates, err := r.processor.Process(ctx, batch)
			if err != nil {
				r.logger.Error("batch failed", "first", batch[0].Position, "size", len(batch), "err", err)
				tracker.Fail(len(batch))
				fail(err)
				return
			}
			mu.Lock()
			updates = append(updates, batchUpdates...)
			mu.Unlock()
			tracker.Add(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
		return nil
	})
	wg.Wait()
	tracker.Finish()

	if firstErr != nil {
		return result, firstErr
	}
	if err != nil {
		return result, err
	}

	slices.SortFunc(updates, func(a, b records.EmbeddingUpdate) int {
		return a.Position - b.Position
	})
	applied, err := r.source.ApplyEmbeddings(ctx, sess, updates)
	result.Applied = applied
	if err != nil {
		return result, fmt.Errorf("failed to store embeddings: %w", err)
	}
	result.Elapsed = tracker.Elapsed()

	fmt.Fprintf(r.progress, "Re-embedding complete. Updated %d records in %v (%.1f records/sec)\n",
		applied, result.Elapsed.Round(time.Millisecond), float64(len(selected))/result.Elapsed.Seconds())
	r.logger.Info("re-embedding complete", "selected", len(selected), "applied", applied)
	return result, nil
}
