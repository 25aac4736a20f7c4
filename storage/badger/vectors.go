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

package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// VectorStore implements storage.VectorStore for BadgerDB using a brute-force
// scan over one user's stored embeddings. Vectors are unit-normalized at
// write time, so similarity is a plain dot product rescaled to [0,1].
type VectorStore struct {
	backend *Backend
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a new VectorStore.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (s *VectorStore) Close() error {
	return nil
}

// UpsertEmbedding stores or overwrites the embedding for an entity.
func (s *VectorStore) UpsertEmbedding(ctx context.Context, userID core.ID, record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeVectorKey(userID, record.EntityType, record.EntityId)
		if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the stored embedding for an entity.
func (s *VectorStore) GetEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) (*core.EmbeddingRecord, error) {
	var record *core.EmbeddingRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(userID, entityType, entityID))
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

// DeleteEmbedding removes the stored embedding for an entity. Deleting a
// missing embedding is not an error.
func (s *VectorStore) DeleteEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeVectorKey(userID, entityType, entityID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Query finds the items most similar to the given vector within one user's
// scope. Results are ordered by similarity descending, then entity ID
// ascending so equal scores always rank the same way.
func (s *VectorStore) Query(ctx context.Context, vector []float32, userID core.ID, filters *storage.Filters, limit int) ([]*core.VectorMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	// A type filter narrows the scan prefix; other filters are checked
	// per candidate.
	prefix := makeVectorUserPrefix(userID)
	if filters != nil && filters.EntityType != "" {
		prefix = makeVectorTypePrefix(userID, filters.EntityType)
	}

	var matches []*core.VectorMatch
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}
			if len(record.Vector) != len(vector) {
				return storage.ErrDimensionMismatch
			}

			if filters != nil {
				if filters.ExcludeId != 0 && record.EntityId == filters.ExcludeId {
					continue
				}
				ok, err := s.matchesMetadata(tx, userID, record, filters)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}

			matches = append(matches, &core.VectorMatch{
				EntityType: record.EntityType,
				EntityId:   record.EntityId,
				Similarity: similarityFromCosine(dotProduct(vector, record.Vector)),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *core.VectorMatch) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		if a.EntityId < b.EntityId {
			return -1
		}
		if a.EntityId > b.EntityId {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// matchesMetadata checks the candidate's underlying record against metadata
// filters. Filters that need no record data short-circuit without a read.
func (s *VectorStore) matchesMetadata(tx *badger.Txn, userID core.ID, record *core.EmbeddingRecord, filters *storage.Filters) (bool, error) {
	if filters.Category == "" && filters.Merchant == "" && filters.Product == "" &&
		filters.DateRange == nil && filters.AmountRange == nil {
		return true, nil
	}

	switch record.EntityType {
	case core.EntityTypeReceipt:
		receipt, err := readReceipt(tx, makeReceiptKey(userID, record.EntityId))
		if err != nil {
			return false, err
		}
		if receipt == nil {
			return false, nil
		}
		return filters.MatchesReceipt(receipt), nil
	case core.EntityTypeWarranty:
		warranty, err := readWarranty(tx, makeWarrantyKey(userID, record.EntityId))
		if err != nil {
			return false, err
		}
		if warranty == nil {
			return false, nil
		}
		return filters.MatchesWarranty(warranty), nil
	default:
		return false, nil
	}
}

// similarityFromCosine rescales a cosine value from [-1,1] to [0,1].
func similarityFromCosine(cos float32) float64 {
	sim := (float64(cos) + 1) / 2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
