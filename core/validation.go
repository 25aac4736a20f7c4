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


package core

import (
	"fmt"
	"time"
)

// ValidateReceipt validates a Receipt according to domain rules.
//
// Validation rules:
//   - UserId must be set
//   - Amount must not be negative
//   - At least one of Merchant and OCRText must be present
//   - PurchasedAt must not be in the future
//
// NOT validated (populated by processors):
//   - ID (0 is valid from database sequences)
func ValidateReceipt(receipt *Receipt) error {
	if receipt == nil {
		return fmt.Errorf("%w: receipt is nil", ErrInvalidReceipt)
	}

	if receipt.UserId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReceipt, ErrMissingUser)
	}

	if receipt.Amount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReceipt, ErrNegativeAmount)
	}

	if receipt.Merchant == "" && receipt.OCRText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReceipt, ErrEmptyContent)
	}

	if !IsValidTimestamp(receipt.PurchasedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidReceipt, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateWarranty validates a Warranty according to domain rules.
//
// Validation rules:
//   - UserId must be set
//   - Product must not be empty
//   - PurchasedAt must not be in the future
func ValidateWarranty(warranty *Warranty) error {
	if warranty == nil {
		return fmt.Errorf("%w: warranty is nil", ErrInvalidWarranty)
	}

	if warranty.UserId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidWarranty, ErrMissingUser)
	}

	if warranty.Product == "" {
		return fmt.Errorf("%w: %w", ErrInvalidWarranty, ErrEmptyProduct)
	}

	if !IsValidTimestamp(warranty.PurchasedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidWarranty, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - ContentHash must not be empty
//   - Vector must not be empty
//   - ModelId must not be empty
//   - EntityType must be a recognized value
func ValidateEmbeddingRecord(record *EmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbeddingRecord)
	}

	if record.ContentHash == "" {
		return fmt.Errorf("%w: content hash is empty", ErrInvalidEmbeddingRecord)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: vector is empty", ErrInvalidEmbeddingRecord)
	}

	if record.ModelId == "" {
		return fmt.Errorf("%w: model id is empty", ErrInvalidEmbeddingRecord)
	}

	if err := ValidateEntityType(record.EntityType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, err)
	}

	return nil
}

// ValidateEntityType validates that an EntityType has a recognized value.
func ValidateEntityType(entityType EntityType) error {
	switch entityType {
	case EntityTypeReceipt, EntityTypeWarranty:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}
}

// IsValidTimestamp reports whether a timestamp is not in the future.
// A small skew allowance covers clock drift between collaborating hosts.
func IsValidTimestamp(t time.Time) bool {
	return !t.After(time.Now().UTC().Add(5 * time.Minute))
}
