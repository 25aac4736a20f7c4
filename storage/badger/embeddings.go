package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// EmbeddingCacheStore implements storage.EmbeddingStore for BadgerDB.
// Records are keyed by (entity type, content hash), so identical canonical
// text resolves to one cached vector.
type EmbeddingCacheStore struct {
	backend *Backend
}

var _ storage.EmbeddingStore = (*EmbeddingCacheStore)(nil)

// NewEmbeddingCacheStore creates a new EmbeddingCacheStore.
func NewEmbeddingCacheStore(backend *Backend) *EmbeddingCacheStore {
	return &EmbeddingCacheStore{backend: backend}
}

// GetCached retrieves a cached embedding by content hash.
func (s *EmbeddingCacheStore) GetCached(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	var record *core.EmbeddingRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCacheKey(entityType, contentHash))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
			return unmarshalErr
		})
	}, false)
	return record, err
}

// PutCached stores a cached embedding, overwriting any prior record for the
// same content hash. Concurrent writers racing on one hash produce the same
// vector, so last-write-wins is benign.
func (s *EmbeddingCacheStore) PutCached(ctx context.Context, record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCacheKey(record.EntityType, record.ContentHash)
		if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
