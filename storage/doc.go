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


// Package storage provides the storage abstraction layer for ledgerfind.
//
// This package defines the store interfaces that decouple retrieval logic
// from storage implementation. Two backends ship with the module:
//
//   - storage/badger: embedded BadgerDB backend holding records, the durable
//     embedding cache, and an exact-scan vector index
//   - storage/postgres: pgvector-backed VectorStore for deployments where
//     nearest-neighbor search should run inside Postgres
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// keep backends swappable:
//
//	repo, err := badger.NewReceiptRepository(backend)  // storage.ReceiptRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Ownership
//
// Every stored item belongs to exactly one user. Store methods take the
// user ID explicitly and must never return another user's records; Filters
// narrow a query but cannot widen the user scope.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
