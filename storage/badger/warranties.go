package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// WarrantyRepository implements storage.WarrantyRepository for BadgerDB.
type WarrantyRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.WarrantyRepository = (*WarrantyRepository)(nil)

// NewWarrantyRepository creates a new WarrantyRepository.
func NewWarrantyRepository(backend *Backend) (*WarrantyRepository, error) {
	idSeq, err := backend.GetSequence(warrantyIDSeq)
	if err != nil {
		return nil, err
	}

	return &WarrantyRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *WarrantyRepository) Close() error {
	return r.idSeq.Release()
}

// AddWarranties adds one or more warranties to storage.
func (r *WarrantyRepository) AddWarranties(ctx context.Context, warranties ...*core.Warranty) ([]*core.Warranty, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, warranty := range warranties {
			if warranty.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				warranty.Id = core.ID(nextID)
			}

			if err := core.ValidateWarranty(warranty); err != nil {
				return err
			}

			warranty.InsertedAt = time.Now().UTC()
			warranty.UpdatedAt = warranty.InsertedAt

			key := makeWarrantyKey(warranty.UserId, warranty.Id)
			value := storage.MarshalWarranty(warranty)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			expiryKey := makeWarrantyExpiryKey(warranty.UserId, warranty.ExpiresAt, warranty.Id)
			if err := tx.Set(expiryKey, storage.MarshalID(warranty.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return warranties, err
}

// UpdateWarranties updates existing warranties.
func (r *WarrantyRepository) UpdateWarranties(ctx context.Context, warranties ...*core.Warranty) ([]*core.Warranty, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, warranty := range warranties {
			key := makeWarrantyKey(warranty.UserId, warranty.Id)

			old, err := readWarranty(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if err := core.ValidateWarranty(warranty); err != nil {
				return err
			}

			warranty.InsertedAt = old.InsertedAt
			warranty.UpdatedAt = time.Now().UTC()

			value := storage.MarshalWarranty(warranty)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			if !old.ExpiresAt.Equal(warranty.ExpiresAt) {
				oldExpiryKey := makeWarrantyExpiryKey(old.UserId, old.ExpiresAt, old.Id)
				if err := tx.Delete(oldExpiryKey); err != nil {
					return err
				}
				newExpiryKey := makeWarrantyExpiryKey(warranty.UserId, warranty.ExpiresAt, warranty.Id)
				if err := tx.Set(newExpiryKey, storage.MarshalID(warranty.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return warranties, err
}

// DeleteWarranties removes warranties by their IDs.
func (r *WarrantyRepository) DeleteWarranties(ctx context.Context, userID core.ID, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeWarrantyKey(userID, id)

			warranty, err := readWarranty(tx, key)
			if err != nil {
				return err
			}
			if warranty == nil {
				return storage.ErrNotFound
			}

			expiryKey := makeWarrantyExpiryKey(warranty.UserId, warranty.ExpiresAt, warranty.Id)
			if err := tx.Delete(expiryKey); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetWarranty retrieves a single warranty by ID.
func (r *WarrantyRepository) GetWarranty(ctx context.Context, userID core.ID, id core.ID) (*core.Warranty, error) {
	var result *core.Warranty
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeWarrantyKey(userID, id)
		var err error
		result, err = readWarranty(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetWarranties retrieves multiple warranties by their IDs.
func (r *WarrantyRepository) GetWarranties(ctx context.Context, userID core.ID, ids ...core.ID) ([]*core.Warranty, error) {
	var result []*core.Warranty
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeWarrantyKey(userID, id)
			warranty, err := readWarranty(tx, key)
			if err != nil {
				return err
			}
			if warranty != nil {
				result = append(result, warranty)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetExpiringWarranties retrieves warranties expiring before the given
// instant, ordered by expiry time ascending.
func (r *WarrantyRepository) GetExpiringWarranties(ctx context.Context, userID core.ID, before time.Time) ([]*core.Warranty, error) {
	var results []*core.Warranty
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialWarrantyExpiryKey(userID, time.UnixMicro(0))
		endKey := makePartialWarrantyExpiryKey(userID, before)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			var warrantyID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				warrantyID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			warranty, err := readWarranty(tx, makeWarrantyKey(userID, warrantyID))
			if err != nil {
				return err
			}
			if warranty != nil {
				results = append(results, warranty)
			}
		}
		return nil
	}, false)

	return results, err
}

// readWarranty reads a warranty from the transaction. Returns nil, nil when
// the key does not exist.
func readWarranty(tx *badger.Txn, key []byte) (*core.Warranty, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var warranty *core.Warranty
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		warranty, unmarshalErr = storage.UnmarshalWarranty(val)
		return unmarshalErr
	})
	return warranty, err
}
