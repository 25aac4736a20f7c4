package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateReceipt(t *testing.T) {
	valid := func() *Receipt {
		return &Receipt{
			UserId:      42,
			Merchant:    "Trader Joe's",
			Amount:      38.17,
			Category:    "groceries",
			PurchasedAt: time.Now().UTC().Add(-time.Hour),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Receipt)
		wantErr error
	}{
		{name: "valid receipt", mutate: func(r *Receipt) {}, wantErr: nil},
		{name: "missing user", mutate: func(r *Receipt) { r.UserId = 0 }, wantErr: ErrMissingUser},
		{name: "negative amount", mutate: func(r *Receipt) { r.Amount = -1 }, wantErr: ErrNegativeAmount},
		{
			name: "no merchant or text",
			mutate: func(r *Receipt) {
				r.Merchant = ""
				r.OCRText = ""
			},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "future timestamp",
			mutate:  func(r *Receipt) { r.PurchasedAt = time.Now().UTC().Add(48 * time.Hour) },
			wantErr: ErrInvalidTimestamp,
		},
		{
			name: "OCR text alone is enough",
			mutate: func(r *Receipt) {
				r.Merchant = ""
				r.OCRText = "TRADER JOES #552 TOTAL 38.17"
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := ValidateReceipt(r)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidReceipt)
			}
		})
	}

	t.Run("nil receipt", func(t *testing.T) {
		assert.ErrorIs(t, ValidateReceipt(nil), ErrInvalidReceipt)
	})
}

func TestValidateWarranty(t *testing.T) {
	valid := func() *Warranty {
		return &Warranty{
			UserId:      42,
			Product:     "Dishwasher",
			Brand:       "Bosch",
			PurchasedAt: time.Now().UTC().Add(-24 * time.Hour),
			ExpiresAt:   time.Now().UTC().Add(365 * 24 * time.Hour),
		}
	}

	t.Run("valid warranty", func(t *testing.T) {
		assert.NoError(t, ValidateWarranty(valid()))
	})

	t.Run("missing user", func(t *testing.T) {
		w := valid()
		w.UserId = 0
		assert.ErrorIs(t, ValidateWarranty(w), ErrMissingUser)
	})

	t.Run("empty product", func(t *testing.T) {
		w := valid()
		w.Product = ""
		assert.ErrorIs(t, ValidateWarranty(w), ErrEmptyProduct)
	})

	t.Run("nil warranty", func(t *testing.T) {
		assert.ErrorIs(t, ValidateWarranty(nil), ErrInvalidWarranty)
	})
}

func TestValidateEmbeddingRecord(t *testing.T) {
	valid := func() *EmbeddingRecord {
		return &EmbeddingRecord{
			ContentHash: HashContent("some canonical text"),
			Vector:      []float32{0.1, 0.2, 0.3},
			ModelId:     "embeddinggemma",
			EntityType:  EntityTypeReceipt,
			EntityId:    7,
			CreatedAt:   time.Now().UTC(),
		}
	}

	t.Run("valid record", func(t *testing.T) {
		assert.NoError(t, ValidateEmbeddingRecord(valid()))
	})

	t.Run("empty vector", func(t *testing.T) {
		rec := valid()
		rec.Vector = nil
		assert.ErrorIs(t, ValidateEmbeddingRecord(rec), ErrInvalidEmbeddingRecord)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		rec := valid()
		rec.EntityType = "invoice"
		err := ValidateEmbeddingRecord(rec)
		assert.ErrorIs(t, err, ErrInvalidEntityType)
	})
}

func TestValidateEntityType(t *testing.T) {
	assert.NoError(t, ValidateEntityType(EntityTypeReceipt))
	assert.NoError(t, ValidateEntityType(EntityTypeWarranty))

	err := ValidateEntityType("memo")
	if !errors.Is(err, ErrInvalidEntityType) {
		t.Errorf("expected ErrInvalidEntityType, got %v", err)
	}
}
