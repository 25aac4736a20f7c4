package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(hash string) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		ContentHash: hash,
		Vector:      []float32{1, 0, 0},
		ModelId:     "test-model",
		EntityType:  core.EntityTypeReceipt,
		EntityId:    1,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache, err := NewMemoryCache(8)
	require.NoError(t, err)

	ctx := context.Background()
	record := testRecord("abc")
	require.NoError(t, cache.Put(ctx, record))

	got, err := cache.Get(ctx, core.EntityTypeReceipt, "abc")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = cache.Get(ctx, core.EntityTypeReceipt, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryCacheEviction(t *testing.T) {
	cache, err := NewMemoryCache(2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, testRecord("a")))
	require.NoError(t, cache.Put(ctx, testRecord("b")))
	require.NoError(t, cache.Put(ctx, testRecord("c")))

	// Oldest entry is evicted
	_, err = cache.Get(ctx, core.EntityTypeReceipt, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = cache.Get(ctx, core.EntityTypeReceipt, "c")
	assert.NoError(t, err)
}

// fakeStore is a map-backed storage.EmbeddingStore for cache tier tests.
type fakeStore struct {
	records map[string]*core.EmbeddingRecord
	gets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*core.EmbeddingRecord{}}
}

func (s *fakeStore) GetCached(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error) {
	s.gets++
	record, ok := s.records[string(entityType)+":"+contentHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

func (s *fakeStore) PutCached(ctx context.Context, record *core.EmbeddingRecord) error {
	s.records[string(record.EntityType)+":"+record.ContentHash] = record
	return nil
}

func TestTieredCachePromotion(t *testing.T) {
	front, err := NewMemoryCache(8)
	require.NoError(t, err)
	store := newFakeStore()
	tiered := NewTieredCache(front, NewStoreCache(store))

	ctx := context.Background()
	record := testRecord("abc")
	require.NoError(t, store.PutCached(ctx, record))

	// First read comes from the back tier
	got, err := tiered.Get(ctx, core.EntityTypeReceipt, "abc")
	require.NoError(t, err)
	assert.Equal(t, record, got)
	assert.Equal(t, 1, store.gets)

	// Second read is served by the promoted front entry
	_, err = tiered.Get(ctx, core.EntityTypeReceipt, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets)
}

func TestTieredCacheWriteThrough(t *testing.T) {
	front, err := NewMemoryCache(8)
	require.NoError(t, err)
	store := newFakeStore()
	tiered := NewTieredCache(front, NewStoreCache(store))

	ctx := context.Background()
	record := testRecord("xyz")
	require.NoError(t, tiered.Put(ctx, record))

	// Both tiers hold the record
	_, err = front.Get(ctx, core.EntityTypeReceipt, "xyz")
	assert.NoError(t, err)
	_, err = store.GetCached(ctx, core.EntityTypeReceipt, "xyz")
	assert.NoError(t, err)
}
