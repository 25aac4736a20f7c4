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

package search

import "errors"

var (
	// ErrEmptyQuery indicates search was invoked with empty or
	// whitespace-only text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrQueryTooLong indicates query text exceeds MaxQueryLength runes.
	ErrQueryTooLong = errors.New("query text too long")

	// ErrInvalidWeights indicates hybrid weights that do not sum to 1.
	ErrInvalidWeights = errors.New("scoring weights must sum to 1")

	// ErrInvalidThreshold indicates a duplicate threshold outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

	// Dependency errors returned by NewSearcher.
	ErrGeneratorRequired          = errors.New("embedding generator is required")
	ErrVectorStoreRequired        = errors.New("vector store is required")
	ErrTextIndexRequired          = errors.New("text index is required")
	ErrReceiptRepositoryRequired  = errors.New("receipt repository is required")
	ErrWarrantyRepositoryRequired = errors.New("warranty repository is required")
)
