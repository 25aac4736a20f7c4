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

package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// indexer embeds stored entities and upserts the vectors. Partial batch
// failures are logged per batch; every record that did embed is still
// indexed.
type indexer struct {
	generator EntityEmbedder
	vectors   storage.VectorStore
	logger    *slog.Logger
}

func newIndexer(generator EntityEmbedder, vectors storage.VectorStore, logger *slog.Logger) *indexer {
	return &indexer{
		generator: generator,
		vectors:   vectors,
		logger:    logger.With("processor", "indexer"),
	}
}

// index embeds the given entities and stores their vectors. All entities
// must belong to userID.
func (ix *indexer) index(ctx context.Context, userID core.ID, entities []core.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	ix.logger.Info("indexing records", "records", len(entities))

	records, err := ix.generator.EmbedBatch(ctx, entities)
	if err != nil {
		// Per-item failures leave nil slots but usable records; a nil
		// record slice means the whole batch failed.
		if len(records) == 0 {
			ix.logger.Error("error generating embeddings", "err", err)
			return err
		}
		ix.logger.Warn("partial embedding failure", "requested", len(entities), "err", err)
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if upsertErr := ix.vectors.UpsertEmbedding(ctx, userID, record); upsertErr != nil {
			ix.logger.Error("error storing embedding", "entityType", record.EntityType,
				"entityId", record.EntityId, "err", upsertErr)
			err = upsertErr
		}
	}
	return err
}

// remove deletes the stored vectors for the given entities.
func (ix *indexer) remove(ctx context.Context, userID core.ID, entityType core.EntityType, ids []core.ID) error {
	var lastErr error
	for _, id := range ids {
		if err := ix.vectors.DeleteEmbedding(ctx, userID, entityType, id); err != nil {
			ix.logger.Error("error deleting embedding", "entityType", entityType,
				"entityId", id, "err", err)
			lastErr = err
		}
	}
	return lastErr
}
