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

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
	"github.com/poiesic/ledgerfind/storage/badger"
)

const testUserID = core.ID(42)

var testTime = time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)

// stubEmbedder returns canned vectors and counts provider calls, so tests
// can assert that validation short-circuits before any embedding happens.
type stubEmbedder struct {
	queryVector []float32
	queryCalls  int
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.queryCalls++
	return s.queryVector, nil
}

func newTestSearcher(t *testing.T, embedder *stubEmbedder, opts ...Option) (*Searcher, *badger.Stores) {
	t.Helper()

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	opts = append(opts, WithClock(func() time.Time { return testTime }))
	searcher, err := NewSearcher(embedder, stores.Vectors, stores.TextIndex,
		stores.Receipts, stores.Warranties, opts...)
	require.NoError(t, err)
	return searcher, stores
}

func addReceipt(t *testing.T, stores *badger.Stores, receipt *core.Receipt, vector []float32) *core.Receipt {
	t.Helper()
	ctx := context.Background()

	receipt.UserId = testUserID
	if receipt.Currency == "" {
		receipt.Currency = "USD"
	}
	if receipt.PurchasedAt.IsZero() {
		receipt.PurchasedAt = testTime.AddDate(0, 0, -3)
	}
	added, err := stores.Receipts.AddReceipts(ctx, receipt)
	require.NoError(t, err)

	if vector != nil {
		err = stores.Vectors.UpsertEmbedding(ctx, testUserID, &core.EmbeddingRecord{
			ContentHash: "hash-" + receipt.Merchant,
			Vector:      vector,
			ModelId:     "stub-model",
			EntityType:  core.EntityTypeReceipt,
			EntityId:    added[0].Id,
			CreatedAt:   testTime,
		})
		require.NoError(t, err)
	}
	return added[0]
}

func addWarranty(t *testing.T, stores *badger.Stores, warranty *core.Warranty, vector []float32) *core.Warranty {
	t.Helper()
	ctx := context.Background()

	warranty.UserId = testUserID
	if warranty.PurchasedAt.IsZero() {
		warranty.PurchasedAt = testTime.AddDate(0, -1, 0)
	}
	if warranty.ExpiresAt.IsZero() {
		warranty.ExpiresAt = testTime.AddDate(1, 0, 0)
	}
	added, err := stores.Warranties.AddWarranties(ctx, warranty)
	require.NoError(t, err)

	if vector != nil {
		err = stores.Vectors.UpsertEmbedding(ctx, testUserID, &core.EmbeddingRecord{
			ContentHash: "hash-" + warranty.Product,
			Vector:      vector,
			ModelId:     "stub-model",
			EntityType:  core.EntityTypeWarranty,
			EntityId:    added[0].Id,
			CreatedAt:   testTime,
		})
		require.NoError(t, err)
	}
	return added[0]
}

func TestSearchRejectsEmptyQueryBeforeEmbedding(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, _ := newTestSearcher(t, embedder)

	_, err := searcher.Search(context.Background(), testUserID, "", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = searcher.Search(context.Background(), testUserID, "   \t  ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	assert.Equal(t, 0, embedder.queryCalls)
}

func TestSearchRejectsOversizedQueryBeforeEmbedding(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, _ := newTestSearcher(t, embedder)

	_, err := searcher.Search(context.Background(), testUserID, strings.Repeat("a", 1001), nil)
	assert.ErrorIs(t, err, ErrQueryTooLong)
	assert.Equal(t, 0, embedder.queryCalls)

	// Exactly at the limit is fine.
	embedder.queryVector = []float32{1, 0, 0, 0}
	_, err = searcher.Search(context.Background(), testUserID, strings.Repeat("a", 1000), nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, embedder.queryCalls)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	near := addReceipt(t, stores, &core.Receipt{Merchant: "Whole Foods", Amount: 54.20},
		[]float32{1, 0, 0, 0})
	far := addReceipt(t, stores, &core.Receipt{Merchant: "Shell", Amount: 40.00},
		[]float32{0, 1, 0, 0})

	results, err := searcher.Search(context.Background(), testUserID, "organic groceries", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, near.Id, results[0].ItemId)
	assert.InDelta(t, 1.0, results[0].VectorScore, 1e-6)
	assert.Equal(t, results[0].VectorScore, results[0].CombinedScore)
	require.NotNil(t, results[0].Receipt)
	assert.Equal(t, "Whole Foods", results[0].Receipt.Merchant)

	assert.Equal(t, far.Id, results[1].ItemId)
	assert.InDelta(t, 0.5, results[1].VectorScore, 1e-6)
}

func TestSearchCategoryHintNarrowsWithoutEmptying(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	groceries := addReceipt(t, stores, &core.Receipt{Merchant: "Safeway", Category: "groceries", Amount: 80},
		[]float32{1, 0, 0, 0})
	addReceipt(t, stores, &core.Receipt{Merchant: "Shell", Category: "fuel", Amount: 45},
		[]float32{1, 0, 0, 0})

	// With matching metadata present, the extracted hint narrows the set.
	results, err := searcher.Search(context.Background(), testUserID, "grocery spending", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, groceries.Id, results[0].ItemId)
}

func TestSearchCategoryHintFallsAwayOnUncategorizedLedger(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	// No stored receipt carries category metadata; the extracted hint must
	// not blank the result set.
	first := addReceipt(t, stores, &core.Receipt{Merchant: "Whole Foods", Amount: 54.20},
		[]float32{1, 0, 0, 0})
	addReceipt(t, stores, &core.Receipt{Merchant: "Shell", Amount: 40},
		[]float32{0, 1, 0, 0})

	results, err := searcher.Search(context.Background(), testUserID, "organic groceries", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, first.Id, results[0].ItemId)
}

func TestSearchZeroMatchesReturnsEmptySet(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, _ := newTestSearcher(t, embedder)

	results, err := searcher.Search(context.Background(), testUserID, "anything at all", nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchExplicitFiltersWin(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	addReceipt(t, stores, &core.Receipt{Merchant: "Whole Foods", Category: "groceries", Amount: 54.20},
		[]float32{1, 0, 0, 0})
	dining := addReceipt(t, stores, &core.Receipt{Merchant: "Chez Panisse", Category: "dining", Amount: 120.00},
		[]float32{0.9, 0.1, 0, 0})

	// Query text suggests groceries, but the explicit filter pins dining.
	results, err := searcher.Search(context.Background(), testUserID, "grocery purchases", &Options{
		Filters: &storage.Filters{Category: "dining"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, dining.Id, results[0].ItemId)
}

func TestSearchExtractedDateRangeFilters(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	recent := addReceipt(t, stores, &core.Receipt{
		Merchant:    "Target",
		Amount:      25,
		PurchasedAt: testTime.AddDate(0, 0, -2),
	}, []float32{1, 0, 0, 0})
	addReceipt(t, stores, &core.Receipt{
		Merchant:    "Target",
		Amount:      30,
		PurchasedAt: testTime.AddDate(0, 0, -40),
	}, []float32{1, 0, 0, 0})

	results, err := searcher.Search(context.Background(), testUserID, "purchases in the last 7 days", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recent.Id, results[0].ItemId)
}

func TestSearchDomainRestrictsEntityType(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	addReceipt(t, stores, &core.Receipt{Merchant: "Best Buy", Amount: 899},
		[]float32{1, 0, 0, 0})
	warranty := addWarranty(t, stores, &core.Warranty{Product: "Espresso Machine", Retailer: "Best Buy"},
		[]float32{1, 0, 0, 0})

	results, err := searcher.SearchDomain(context.Background(), testUserID,
		"espresso machine coverage", core.EntityTypeWarranty, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.EntityTypeWarranty, results[0].ItemType)
	assert.Equal(t, warranty.Id, results[0].ItemId)
	require.NotNil(t, results[0].Warranty)
	assert.Equal(t, "Espresso Machine", results[0].Warranty.Product)
}

func TestSearchDomainRejectsUnknownType(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, _ := newTestSearcher(t, embedder)

	_, err := searcher.SearchDomain(context.Background(), testUserID, "anything",
		core.EntityType("invoice"), nil)
	assert.ErrorIs(t, err, core.ErrInvalidEntityType)
}

func TestSearchHydrationDropsVanishedItems(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	kept := addReceipt(t, stores, &core.Receipt{Merchant: "Costco", Amount: 210},
		[]float32{1, 0, 0, 0})

	// An embedding whose receipt no longer exists.
	err := stores.Vectors.UpsertEmbedding(context.Background(), testUserID, &core.EmbeddingRecord{
		ContentHash: "orphan",
		Vector:      []float32{1, 0, 0, 0},
		ModelId:     "stub-model",
		EntityType:  core.EntityTypeReceipt,
		EntityId:    9999,
		CreatedAt:   testTime,
	})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), testUserID, "warehouse shopping", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.Id, results[0].ItemId)
}

func TestHybridSearchBlendsModalities(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	// Lexically weak but semantically close.
	semantic := addReceipt(t, stores, &core.Receipt{Merchant: "Trader Joes", Amount: 48},
		[]float32{1, 0, 0, 0})
	// Lexically perfect but semantically far.
	lexical := addReceipt(t, stores, &core.Receipt{Merchant: "Coffee Beans", Amount: 12},
		[]float32{0, 1, 0, 0})

	results, err := searcher.HybridSearch(context.Background(), testUserID, "coffee beans", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Vector weight 0.7 dominates text weight 0.3.
	assert.Equal(t, semantic.Id, results[0].ItemId)
	assert.Equal(t, lexical.Id, results[1].ItemId)
	assert.Greater(t, results[0].CombinedScore, results[1].CombinedScore)
	assert.Greater(t, results[1].TextScore, results[0].TextScore)
	require.NotNil(t, results[1].Receipt)
}

func TestHybridSearchValidatesWeights(t *testing.T) {
	embedder := &stubEmbedder{}
	_, err := NewSearcher(embedder, nil, nil, nil, nil, WithWeights(Weights{Vector: 0.5, Text: 0.4}))
	assert.ErrorIs(t, err, ErrVectorStoreRequired)

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer stores.Close()

	_, err = NewSearcher(embedder, stores.Vectors, stores.TextIndex,
		stores.Receipts, stores.Warranties, WithWeights(Weights{Vector: 0.5, Text: 0.4}))
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestSearchMonitorCallbacks(t *testing.T) {
	embedder := &stubEmbedder{queryVector: []float32{1, 0, 0, 0}}
	searcher, stores := newTestSearcher(t, embedder)

	addReceipt(t, stores, &core.Receipt{Merchant: "Whole Foods", Amount: 54.20},
		[]float32{1, 0, 0, 0})

	monitor := &recordingMonitor{}
	_, err := searcher.HybridSearch(context.Background(), testUserID, "whole foods groceries",
		&Options{Monitor: monitor})
	require.NoError(t, err)

	assert.Equal(t, "whole foods groceries", monitor.startedWith)
	require.NotNil(t, monitor.parsed)
	assert.Equal(t, core.IntentUnknown, monitor.parsed.Intent)
	assert.Equal(t, 1, monitor.vectorHits)
	assert.Equal(t, 1, monitor.textHits)
	assert.Equal(t, 1, monitor.finished)
}

type recordingMonitor struct {
	startedWith string
	parsed      *core.Query
	vectorHits  int
	textHits    int
	finished    int
}

func (m *recordingMonitor) Start(text string)                          { m.startedWith = text }
func (m *recordingMonitor) AfterQueryUnderstanding(parsed *core.Query) { m.parsed = parsed }
func (m *recordingMonitor) AfterVectorSearch(matches []*core.VectorMatch) {
	m.vectorHits = len(matches)
}
func (m *recordingMonitor) AfterTextSearch(matches []*core.TextMatch) { m.textHits = len(matches) }
func (m *recordingMonitor) Finish(results []*core.SearchResult)       { m.finished = len(results) }

func TestFindDuplicates(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, stores := newTestSearcher(t, embedder)

	reference := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50},
		[]float32{1, 0, 0, 0})
	duplicate := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50},
		[]float32{1, 0, 0, 0})
	addReceipt(t, stores, &core.Receipt{Merchant: "Shell", Amount: 45.00},
		[]float32{0, 1, 0, 0})

	candidates, err := searcher.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, reference.Id)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, duplicate.Id, candidates[0].ItemId)
	assert.Equal(t, reference.Id, candidates[0].ReferenceId)
	assert.InDelta(t, 1.0, candidates[0].Similarity, 1e-6)
}

func TestFindDuplicatesThresholdIsInclusive(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, stores := newTestSearcher(t, embedder, WithDuplicateThreshold(1.0))

	reference := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50},
		[]float32{1, 0, 0, 0})
	exact := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50},
		[]float32{1, 0, 0, 0})
	addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks Reserve", Amount: 7.50},
		[]float32{0.8, 0.6, 0, 0})

	candidates, err := searcher.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, reference.Id)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, exact.Id, candidates[0].ItemId)
}

func TestFindDuplicatesMissingReference(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, _ := newTestSearcher(t, embedder)

	_, err := searcher.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, embedder.queryCalls)
}

func TestFindDuplicatesUnindexedReference(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, stores := newTestSearcher(t, embedder)

	// Reference stored without any embedding: the caller should be told to
	// re-process it, not handed an empty candidate list.
	reference := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50}, nil)

	_, err := searcher.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, reference.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindDuplicatesNeverReturnsReference(t *testing.T) {
	embedder := &stubEmbedder{}
	searcher, stores := newTestSearcher(t, embedder)

	reference := addReceipt(t, stores, &core.Receipt{Merchant: "Starbucks", Amount: 6.50},
		[]float32{1, 0, 0, 0})

	candidates, err := searcher.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, reference.Id)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
