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

// Stores bundles every store backed by one Backend. Convenient for wiring
// and for in-memory test setups.
type Stores struct {
	Receipts   *ReceiptRepository
	Warranties *WarrantyRepository
	Vectors    *VectorStore
	TextIndex  *TextIndexStore
	Cache      *EmbeddingCacheStore
	Backend    *Backend
}

// Close closes every store and the underlying backend.
func (s *Stores) Close() error {
	s.Receipts.Close()
	s.Warranties.Close()
	s.Vectors.Close()
	return s.Backend.Close()
}

// OpenStores opens a backend at path and constructs every store on it.
func OpenStores(path string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	receipts, err := NewReceiptRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	warranties, err := NewWarrantyRepository(backend)
	if err != nil {
		receipts.Close()
		backend.Close()
		return nil, err
	}

	return &Stores{
		Receipts:   receipts,
		Warranties: warranties,
		Vectors:    NewVectorStore(backend),
		TextIndex:  NewTextIndexStore(backend),
		Cache:      NewEmbeddingCacheStore(backend),
		Backend:    backend,
	}, nil
}

// NewMemoryStores creates in-memory stores for testing.
// Caller must close the returned stores when done.
func NewMemoryStores() (*Stores, error) {
	return OpenStores("", true)
}
