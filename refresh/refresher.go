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

package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// Config holds configuration for the refresh operation.
type Config struct {
	// BatchSize is the number of records to process in each batch.
	BatchSize int

	// ReportInterval is how often to report progress (number of records).
	ReportInterval int

	// MaxRetries is the maximum number of attempts for embedding calls.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// MaxAge marks a stored embedding stale once it is older than this.
	// A model change always marks it stale regardless of age.
	MaxAge time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		MaxAge:         24 * time.Hour,
	}
}

// EntityEmbedder is the slice of the embedding generator the refresher
// needs: batch embedding plus the active model identity.
type EntityEmbedder interface {
	EmbedBatch(ctx context.Context, entities []core.Entity) ([]*core.EmbeddingRecord, error)
	ModelId() string
}

// Summary reports what one refresh run did.
type Summary struct {
	Scanned   int
	Refreshed int
	Skipped   int
}

// Refresher regenerates stale embeddings for a user's records: vectors that
// are missing, older than MaxAge, or produced by a different model than the
// generator's current one.
type Refresher struct {
	vectors   storage.VectorStore
	generator EntityEmbedder
	config    *Config
	progress  io.Writer
	iterator  *EntityIterator
	now       func() time.Time
}

// NewRefresher creates a new refresher.
// progress: where to write progress output (typically os.Stderr).
func NewRefresher(
	receipts storage.ReceiptRepository,
	warranties storage.WarrantyRepository,
	vectors storage.VectorStore,
	generator EntityEmbedder,
	config *Config,
	progress io.Writer,
) (*Refresher, error) {
	if receipts == nil {
		return nil, ErrReceiptRepositoryRequired
	}
	if warranties == nil {
		return nil, ErrWarrantyRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Refresher{
		vectors:   vectors,
		generator: generator,
		config:    config,
		progress:  progress,
		iterator:  NewEntityIterator(receipts, warranties, config.BatchSize),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run refreshes stale embeddings for every record the user owns and
// reports progress along the way.
func (r *Refresher) Run(ctx context.Context, userID core.ID) (*Summary, error) {
	total, err := r.iterator.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	summary := &Summary{}
	if total == 0 {
		fmt.Fprintf(r.progress, "No records found (0 records)\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Refreshing embeddings for %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, userID, func(batch []core.Entity) error {
		stale, err := r.staleSubset(ctx, userID, batch)
		if err != nil {
			return err
		}

		summary.Scanned += len(batch)
		summary.Skipped += len(batch) - len(stale)

		if len(stale) > 0 {
			refreshed, err := r.refreshBatch(ctx, userID, stale)
			if err != nil {
				return err
			}
			summary.Refreshed += refreshed
		}

		tracker.Update(summary.Scanned)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Refresh complete. Scanned %d, refreshed %d, skipped %d in %v\n",
		summary.Scanned, summary.Refreshed, summary.Skipped, elapsed.Round(time.Second))

	return summary, nil
}

// staleSubset keeps the entities whose stored embedding is missing, model
// mismatched, or past MaxAge.
func (r *Refresher) staleSubset(ctx context.Context, userID core.ID, batch []core.Entity) ([]core.Entity, error) {
	var stale []core.Entity
	for _, entity := range batch {
		record, err := r.vectors.GetEmbedding(ctx, userID, entity.Type(), entity.EntityID())
		if errors.Is(err, storage.ErrNotFound) {
			stale = append(stale, entity)
			continue
		}
		if err != nil {
			return nil, err
		}
		if record.ModelId != r.generator.ModelId() {
			stale = append(stale, entity)
			continue
		}
		if r.config.MaxAge > 0 && r.now().Sub(record.CreatedAt) > r.config.MaxAge {
			stale = append(stale, entity)
		}
	}
	return stale, nil
}

// refreshBatch embeds the stale entities with retry and upserts the new
// vectors. Returns the number of vectors written.
func (r *Refresher) refreshBatch(ctx context.Context, userID core.ID, stale []core.Entity) (int, error) {
	var records []*core.EmbeddingRecord
	err := RetryWithBackoff(ctx, func() error {
		var err error
		records, err = r.generator.EmbedBatch(ctx, stale)
		return err
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w",
			r.config.MaxRetries, err)
	}

	written := 0
	for _, record := range records {
		if record == nil {
			continue
		}
		if err := r.vectors.UpsertEmbedding(ctx, userID, record); err != nil {
			return written, fmt.Errorf("failed to store embedding: %w", err)
		}
		written++
	}
	return written, nil
}
