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

import "errors"

// Domain validation errors
var (
	// ErrInvalidReceipt indicates a Receipt failed validation.
	ErrInvalidReceipt = errors.New("invalid receipt")

	// ErrInvalidWarranty indicates a Warranty failed validation.
	ErrInvalidWarranty = errors.New("invalid warranty")

	// ErrInvalidEmbeddingRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbeddingRecord = errors.New("invalid embedding record")

	// ErrMissingUser indicates the UserId field is zero.
	ErrMissingUser = errors.New("user id is required")

	// ErrNegativeAmount indicates a negative monetary amount.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrEmptyContent indicates a record carries no describable content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyProduct indicates the warranty Product field is empty.
	ErrEmptyProduct = errors.New("product cannot be empty")

	// ErrInvalidEntityType indicates an unrecognized EntityType value.
	ErrInvalidEntityType = errors.New("invalid entity type")
)
