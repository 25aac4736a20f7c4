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

package embedding

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// Cache stores embedding records keyed by (entity type, content hash).
// Staleness is not a cache concern: records carry their creation time and
// the generator decides at read time whether a hit is still usable.
type Cache interface {
	// Get retrieves a cached record. Returns storage.ErrNotFound on a miss.
	Get(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error)

	// Put stores a record, overwriting any prior record for the same key.
	Put(ctx context.Context, record *core.EmbeddingRecord) error
}

// MemoryCache is a bounded in-process LRU cache tier.
type MemoryCache struct {
	entries *lru.Cache[string, *core.EmbeddingRecord]
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache holding up to size records.
func NewMemoryCache(size int) (*MemoryCache, error) {
	entries, err := lru.New[string, *core.EmbeddingRecord](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries}, nil
}

func (c *MemoryCache) Get(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	record, ok := c.entries.Get(memoryCacheKey(entityType, contentHash))
	if !ok {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

func (c *MemoryCache) Put(ctx context.Context, record *core.EmbeddingRecord) error {
	c.entries.Add(memoryCacheKey(record.EntityType, record.ContentHash), record)
	return nil
}

func memoryCacheKey(entityType core.EntityType, contentHash string) string {
	return string(entityType) + ":" + contentHash
}

// StoreCache adapts a durable storage.EmbeddingStore to the Cache interface.
type StoreCache struct {
	store storage.EmbeddingStore
}

var _ Cache = (*StoreCache)(nil)

// NewStoreCache wraps a durable embedding store as a cache tier.
func NewStoreCache(store storage.EmbeddingStore) *StoreCache {
	return &StoreCache{store: store}
}

func (c *StoreCache) Get(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	return c.store.GetCached(ctx, entityType, contentHash)
}

func (c *StoreCache) Put(ctx context.Context, record *core.EmbeddingRecord) error {
	return c.store.PutCached(ctx, record)
}

// TieredCache layers a fast front tier over a durable back tier. Hits in
// the back tier are promoted to the front; writes go to both, and a front
// write failure never masks a durable write.
type TieredCache struct {
	front Cache
	back  Cache
}

var _ Cache = (*TieredCache)(nil)

// NewTieredCache creates a TieredCache from front and back tiers.
func NewTieredCache(front, back Cache) *TieredCache {
	return &TieredCache{front: front, back: back}
}

func (c *TieredCache) Get(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	record, err := c.front.Get(ctx, entityType, contentHash)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	record, err = c.back.Get(ctx, entityType, contentHash)
	if err != nil {
		return nil, err
	}

	// Promote; a full front tier evicting something else is fine.
	if err := c.front.Put(ctx, record); err != nil {
		return record, nil
	}
	return record, nil
}

func (c *TieredCache) Put(ctx context.Context, record *core.EmbeddingRecord) error {
	if err := c.back.Put(ctx, record); err != nil {
		return err
	}
	return c.front.Put(ctx, record)
}
