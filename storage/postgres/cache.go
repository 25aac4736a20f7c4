package postgres

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	entity_type  TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	entity_id    BIGINT NOT NULL,
	model_id     TEXT NOT NULL,
	embedding    vector NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (entity_type, content_hash)
);
`

// EmbeddingCacheStore implements storage.EmbeddingStore on Postgres.
type EmbeddingCacheStore struct {
	db *sql.DB
}

var _ storage.EmbeddingStore = (*EmbeddingCacheStore)(nil)

// NewEmbeddingCacheStore ensures the cache table exists on the given
// VectorStore's connection and returns a cache store sharing it.
func NewEmbeddingCacheStore(vectors *VectorStore) (*EmbeddingCacheStore, error) {
	if _, err := vectors.db.Exec(cacheSchema); err != nil {
		return nil, err
	}
	return &EmbeddingCacheStore{db: vectors.db}, nil
}

// GetCached retrieves a cached embedding by content hash.
func (s *EmbeddingCacheStore) GetCached(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	query := `
		SELECT entity_id, model_id, embedding, created_at
		FROM embedding_cache
		WHERE entity_type = $1 AND content_hash = $2
	`

	var (
		record    core.EmbeddingRecord
		entityID  int64
		embedding pgvector.Vector
	)
	err := s.db.QueryRowContext(ctx, query, string(entityType), contentHash).
		Scan(&entityID, &record.ModelId, &embedding, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record.ContentHash = contentHash
	record.Vector = embedding.Slice()
	record.EntityType = entityType
	record.EntityId = core.ID(entityID)
	return &record, nil
}

// PutCached stores a cached embedding, overwriting any prior record for the
// same (entity type, content hash).
func (s *EmbeddingCacheStore) PutCached(ctx context.Context, record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record); err != nil {
		return err
	}

	query := `
		INSERT INTO embedding_cache (entity_type, content_hash, entity_id, model_id, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_type, content_hash)
		DO UPDATE SET entity_id = $3, model_id = $4, embedding = $5, created_at = $6
	`
	_, err := s.db.ExecContext(ctx, query,
		string(record.EntityType), record.ContentHash, int64(record.EntityId),
		record.ModelId, pgvector.NewVector(record.Vector), record.CreatedAt)
	return err
}
