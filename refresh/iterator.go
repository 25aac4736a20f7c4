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
	"time"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

const (
	// DefaultBatchSize is the default number of records per batch.
	DefaultBatchSize = 100
)

// EntityIterator walks all of a user's receipts and warranties in batches.
type EntityIterator struct {
	receipts   storage.ReceiptRepository
	warranties storage.WarrantyRepository
	batchSize  int
}

// NewEntityIterator creates an iterator over a user's records.
// batchSize must be > 0; non-positive values fall back to DefaultBatchSize.
func NewEntityIterator(receipts storage.ReceiptRepository, warranties storage.WarrantyRepository, batchSize int) *EntityIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EntityIterator{
		receipts:   receipts,
		warranties: warranties,
		batchSize:  batchSize,
	}
}

// ForEach calls fn for each batch of the user's entities, receipts first,
// then warranties. Iteration stops on the first error from fn. Context
// cancellation is checked between batches.
func (it *EntityIterator) ForEach(ctx context.Context, userID core.ID, fn func([]core.Entity) error) error {
	// Wide date range covers every stored record.
	startTime := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	receipts, err := it.receipts.GetReceiptsByDateRange(ctx, userID, startTime, endTime)
	if err != nil {
		return err
	}
	warranties, err := it.warranties.GetExpiringWarranties(ctx, userID, endTime)
	if err != nil {
		return err
	}

	entities := make([]core.Entity, 0, len(receipts)+len(warranties))
	for _, receipt := range receipts {
		entities = append(entities, receipt)
	}
	for _, warranty := range warranties {
		entities = append(entities, warranty)
	}

	for i := 0; i < len(entities); i += it.batchSize {
		end := i + it.batchSize
		if end > len(entities) {
			end = len(entities)
		}

		if err := fn(entities[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

// Count returns the total number of entities the iterator would visit.
func (it *EntityIterator) Count(ctx context.Context, userID core.ID) (int, error) {
	total := 0
	err := it.ForEach(ctx, userID, func(batch []core.Entity) error {
		total += len(batch)
		return nil
	})
	return total, err
}
