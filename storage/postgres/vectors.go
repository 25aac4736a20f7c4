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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

const embeddingsSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS item_embeddings (
	user_id     BIGINT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   BIGINT NOT NULL,
	content_hash TEXT NOT NULL,
	model_id    TEXT NOT NULL,
	embedding   vector NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, entity_type, entity_id)
);
`

// VectorStore implements storage.VectorStore on Postgres with the pgvector
// extension. Nearest-neighbor ordering happens in SQL via the cosine
// distance operator; metadata filters that need item fields are applied on
// the over-fetched candidate set through the injected repositories.
type VectorStore struct {
	db         *sql.DB
	receipts   storage.ReceiptRepository
	warranties storage.WarrantyRepository
}

var _ storage.VectorStore = (*VectorStore)(nil)

// Open connects to Postgres, ensures the embeddings schema exists, and
// returns a VectorStore. The repositories are consulted only when a query
// carries metadata filters; pass nil when filters are not needed.
func Open(dsn string, receipts storage.ReceiptRepository, warranties storage.WarrantyRepository) (*VectorStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(embeddingsSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &VectorStore{db: db, receipts: receipts, warranties: warranties}, nil
}

// Close closes the database connection.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// UpsertEmbedding stores or overwrites the embedding for an entity.
func (s *VectorStore) UpsertEmbedding(ctx context.Context, userID core.ID, record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record); err != nil {
		return err
	}

	query := `
		INSERT INTO item_embeddings (user_id, entity_type, entity_id, content_hash, model_id, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, entity_type, entity_id)
		DO UPDATE SET content_hash = $4, model_id = $5, embedding = $6, created_at = $7
	`
	_, err := s.db.ExecContext(ctx, query,
		int64(userID), string(record.EntityType), int64(record.EntityId),
		record.ContentHash, record.ModelId,
		pgvector.NewVector(record.Vector), record.CreatedAt)
	return err
}

// GetEmbedding retrieves the stored embedding for an entity.
func (s *VectorStore) GetEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) (*core.EmbeddingRecord, error) {
	query := `
		SELECT content_hash, model_id, embedding, created_at
		FROM item_embeddings
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
	`

	var (
		record    core.EmbeddingRecord
		embedding pgvector.Vector
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx, query, int64(userID), string(entityType), int64(entityID)).
		Scan(&record.ContentHash, &record.ModelId, &embedding, &createdAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record.Vector = embedding.Slice()
	record.EntityType = entityType
	record.EntityId = entityID
	record.CreatedAt = createdAt
	return &record, nil
}

// DeleteEmbedding removes the stored embedding for an entity. Deleting a
// missing embedding is not an error.
func (s *VectorStore) DeleteEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) error {
	query := `DELETE FROM item_embeddings WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3`
	_, err := s.db.ExecContext(ctx, query, int64(userID), string(entityType), int64(entityID))
	return err
}

// Query finds the items most similar to the given vector within one user's
// scope. The cosine distance operator returns 1-cos, so similarity is
// rescaled to [0,1] as (2-distance)/2.
func (s *VectorStore) Query(ctx context.Context, vector []float32, userID core.ID, filters *storage.Filters, limit int) ([]*core.VectorMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	query := `
		SELECT entity_type, entity_id, embedding <=> $1 AS distance
		FROM item_embeddings
		WHERE user_id = $2
	`
	args := []any{pgvector.NewVector(vector), int64(userID)}

	if filters != nil && filters.EntityType != "" {
		query += ` AND entity_type = $3`
		args = append(args, string(filters.EntityType))
	}
	query += ` ORDER BY distance ASC, entity_id ASC`

	// Over-fetch when metadata filters will thin the candidate set.
	fetchLimit := limit
	if filters != nil && needsItemData(filters) && limit > 0 {
		fetchLimit = limit * 4
	}
	if fetchLimit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1)
		args = append(args, fetchLimit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*core.VectorMatch
	for rows.Next() {
		var (
			entityType string
			entityID   int64
			distance   float64
		)
		if err := rows.Scan(&entityType, &entityID, &distance); err != nil {
			return nil, err
		}

		match := &core.VectorMatch{
			EntityType: core.EntityType(entityType),
			EntityId:   core.ID(entityID),
			Similarity: clamp01((2 - distance) / 2),
		}

		if filters != nil {
			if filters.ExcludeId != 0 && match.EntityId == filters.ExcludeId {
				continue
			}
			if needsItemData(filters) {
				ok, err := s.matchesMetadata(ctx, userID, match, filters)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
		}

		matches = append(matches, match)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// needsItemData reports whether filters require reading the underlying item.
func needsItemData(filters *storage.Filters) bool {
	return filters.Category != "" || filters.Merchant != "" || filters.Product != "" ||
		filters.DateRange != nil || filters.AmountRange != nil
}

func (s *VectorStore) matchesMetadata(ctx context.Context, userID core.ID, match *core.VectorMatch, filters *storage.Filters) (bool, error) {
	switch match.EntityType {
	case core.EntityTypeReceipt:
		if s.receipts == nil {
			return false, nil
		}
		receipt, err := s.receipts.GetReceipt(ctx, userID, match.EntityId)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return filters.MatchesReceipt(receipt), nil
	case core.EntityTypeWarranty:
		if s.warranties == nil {
			return false, nil
		}
		warranty, err := s.warranties.GetWarranty(ctx, userID, match.EntityId)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return filters.MatchesWarranty(warranty), nil
	default:
		return false, nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
