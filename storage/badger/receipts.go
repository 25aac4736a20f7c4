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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// ReceiptRepository implements storage.ReceiptRepository for BadgerDB.
type ReceiptRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ReceiptRepository = (*ReceiptRepository)(nil)

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(backend *Backend) (*ReceiptRepository, error) {
	idSeq, err := backend.GetSequence(receiptIDSeq)
	if err != nil {
		return nil, err
	}

	return &ReceiptRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ReceiptRepository) Close() error {
	return r.idSeq.Release()
}

// AddReceipts adds one or more receipts to storage.
func (r *ReceiptRepository) AddReceipts(ctx context.Context, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, receipt := range receipts {
			if receipt.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				receipt.Id = core.ID(nextID)
			}

			if err := core.ValidateReceipt(receipt); err != nil {
				return err
			}

			receipt.InsertedAt = time.Now().UTC()
			receipt.UpdatedAt = receipt.InsertedAt

			// Store primary record
			key := makeReceiptKey(receipt.UserId, receipt.Id)
			value := storage.MarshalReceipt(receipt)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update purchase-date index
			dateKey := makeReceiptDateKey(receipt.UserId, receipt.PurchasedAt, receipt.Id)
			if err := tx.Set(dateKey, storage.MarshalID(receipt.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return receipts, err
}

// UpdateReceipts updates existing receipts.
func (r *ReceiptRepository) UpdateReceipts(ctx context.Context, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, receipt := range receipts {
			key := makeReceiptKey(receipt.UserId, receipt.Id)

			// Read old record to detect changes
			old, err := readReceipt(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if err := core.ValidateReceipt(receipt); err != nil {
				return err
			}

			receipt.InsertedAt = old.InsertedAt
			receipt.UpdatedAt = time.Now().UTC()

			value := storage.MarshalReceipt(receipt)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index if the purchase time changed
			if !old.PurchasedAt.Equal(receipt.PurchasedAt) {
				oldDateKey := makeReceiptDateKey(old.UserId, old.PurchasedAt, old.Id)
				if err := tx.Delete(oldDateKey); err != nil {
					return err
				}
				newDateKey := makeReceiptDateKey(receipt.UserId, receipt.PurchasedAt, receipt.Id)
				if err := tx.Set(newDateKey, storage.MarshalID(receipt.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return receipts, err
}

// DeleteReceipts removes receipts by their IDs.
func (r *ReceiptRepository) DeleteReceipts(ctx context.Context, userID core.ID, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeReceiptKey(userID, id)

			// Read record to get metadata for index cleanup
			receipt, err := readReceipt(tx, key)
			if err != nil {
				return err
			}
			if receipt == nil {
				return storage.ErrNotFound
			}

			dateKey := makeReceiptDateKey(receipt.UserId, receipt.PurchasedAt, receipt.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetReceipt retrieves a single receipt by ID.
func (r *ReceiptRepository) GetReceipt(ctx context.Context, userID core.ID, id core.ID) (*core.Receipt, error) {
	var result *core.Receipt
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeReceiptKey(userID, id)
		var err error
		result, err = readReceipt(tx, key)
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

// GetReceipts retrieves multiple receipts by their IDs.
func (r *ReceiptRepository) GetReceipts(ctx context.Context, userID core.ID, ids ...core.ID) ([]*core.Receipt, error) {
	var result []*core.Receipt
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeReceiptKey(userID, id)
			receipt, err := readReceipt(tx, key)
			if err != nil {
				return err
			}
			if receipt != nil {
				result = append(result, receipt)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetReceiptsByDateRange retrieves receipts purchased within a time range,
// ordered by purchase time ascending.
func (r *ReceiptRepository) GetReceiptsByDateRange(ctx context.Context, userID core.ID, start, end time.Time) ([]*core.Receipt, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Receipt
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialReceiptDateKey(userID, start)
		endKey := makePartialReceiptDateKey(userID, end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			// Read the ID from the index
			var receiptID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				receiptID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full record
			receipt, err := readReceipt(tx, makeReceiptKey(userID, receiptID))
			if err != nil {
				return err
			}
			if receipt != nil {
				results = append(results, receipt)
			}
		}
		return nil
	}, false)

	return results, err
}

// readReceipt reads a receipt from the transaction. Returns nil, nil when
// the key does not exist.
func readReceipt(tx *badger.Txn, key []byte) (*core.Receipt, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var receipt *core.Receipt
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		receipt, unmarshalErr = storage.UnmarshalReceipt(val)
		return unmarshalErr
	})
	return receipt, err
}
