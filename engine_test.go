package ledgerfind

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ledgerfind/ai"
	"github.com/poiesic/ledgerfind/ai/mock"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/insight"
	"github.com/poiesic/ledgerfind/storage"
)

const testUserID = core.ID(42)

var testTime = time.Date(2026, 3, 20, 14, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()

	opts = append([]EngineOption{
		WithInMemory(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithAIConfig(ai.NewConfig(ai.WithVectorDimension(384))),
		WithClock(func() time.Time { return testTime }),
	}, opts...)

	engine, err := NewEngine("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func groceryReceipt(merchant string, amount float64, daysAgo int) *core.Receipt {
	return &core.Receipt{
		Merchant:    merchant,
		Amount:      amount,
		Currency:    "USD",
		Category:    "groceries",
		PurchasedAt: testTime.AddDate(0, 0, -daysAgo),
	}
}

func TestNewEngineOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger_db")
	engine, err := NewEngine(path,
		WithEmbedder(mock.NewMockEmbedder()),
		WithAIConfig(ai.NewConfig(ai.WithVectorDimension(384))))
	require.NoError(t, err)
	require.NotNil(t, engine)

	assert.NotNil(t, engine.Receipts())
	assert.NotNil(t, engine.Warranties())
	require.NoError(t, engine.Close())
}

func TestEngineHealthCheck(t *testing.T) {
	engine := newTestEngine(t)

	health := engine.HealthCheck()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "embeddinggemma", health.ModelId)
	assert.Equal(t, 384, health.VectorDimension)
}

func TestEngineSearchEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.AddReceipts(ctx, testUserID,
		groceryReceipt("Whole Foods", 54.20, 2),
		groceryReceipt("Trader Joes", 31.75, 4),
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	engine.WaitForIndexing()

	results, err := engine.Search(ctx, testUserID, "organic groceries", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, core.EntityTypeReceipt, result.ItemType)
		require.NotNil(t, result.Receipt)
		assert.Equal(t, result.CombinedScore, result.VectorScore)
	}
}

func TestEngineHybridSearchEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddReceipts(ctx, testUserID,
		groceryReceipt("Whole Foods", 54.20, 2),
		groceryReceipt("Shell", 40.00, 4),
	)
	require.NoError(t, err)
	engine.WaitForIndexing()

	results, err := engine.HybridSearch(ctx, testUserID, "whole foods", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The lexical match must surface with a positive text score.
	var found bool
	for _, result := range results {
		if result.Receipt != nil && result.Receipt.Merchant == "Whole Foods" {
			found = true
			assert.Greater(t, result.TextScore, 0.0)
		}
	}
	assert.True(t, found)
}

func TestEngineFindDuplicatesEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	// Same merchant, amount, date, and OCR text; only the IDs differ.
	first := groceryReceipt("Starbucks", 6.50, 1)
	first.OCRText = "STARBUCKS STORE 123 LATTE 6.50"
	second := groceryReceipt("Starbucks", 6.50, 1)
	second.OCRText = "STARBUCKS STORE 123 LATTE 6.50"
	other := groceryReceipt("Shell", 45.00, 2)

	added, err := engine.AddReceipts(ctx, testUserID, first, second, other)
	require.NoError(t, err)
	engine.WaitForIndexing()

	candidates, err := engine.FindDuplicates(ctx, testUserID,
		core.EntityTypeReceipt, added[0].Id)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	assert.Equal(t, added[1].Id, candidates[0].ItemId)
	assert.Equal(t, added[0].Id, candidates[0].ReferenceId)
	assert.GreaterOrEqual(t, candidates[0].Similarity, 0.85)
	for _, candidate := range candidates {
		assert.NotEqual(t, added[0].Id, candidate.ItemId)
	}
}

func TestEngineFindDuplicatesMissingReference(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.FindDuplicates(context.Background(), testUserID,
		core.EntityTypeReceipt, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngineAnalyzeBudget(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddReceipts(ctx, testUserID,
		groceryReceipt("Whole Foods", 60, 2),
		groceryReceipt("Trader Joes", 40, 5),
	)
	require.NoError(t, err)
	engine.WaitForIndexing()

	report, err := engine.AnalyzeBudget(ctx, testUserID, "", 30,
		[]insight.Type{insight.TypePatterns})
	require.NoError(t, err)
	require.NotNil(t, report.Patterns)
	assert.Equal(t, 2, report.Patterns.ReceiptCount)
	assert.InDelta(t, 100.0, report.Patterns.Total, 1e-9)
}

func TestEngineRemoveReceipts(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.AddReceipts(ctx, testUserID, groceryReceipt("Whole Foods", 54.20, 2))
	require.NoError(t, err)
	engine.WaitForIndexing()

	require.NoError(t, engine.RemoveReceipts(ctx, testUserID, added[0].Id))

	_, err = engine.FindDuplicates(ctx, testUserID, core.EntityTypeReceipt, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngineClassifyIntent(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, core.IntentSpendingSummary,
		engine.ClassifyIntent("what's my total spending this month"))
	assert.Equal(t, core.IntentDuplicateCheck,
		engine.ClassifyIntent("find duplicate receipts"))
}

func TestEngineExtractEntities(t *testing.T) {
	engine := newTestEngine(t)

	entities := engine.ExtractEntities("receipts over $100 from last month")
	require.NotNil(t, entities.AmountRange)
	require.NotNil(t, entities.AmountRange.Min)
	assert.InDelta(t, 100.0, *entities.AmountRange.Min, 1e-9)
	require.NotNil(t, entities.DateRange)
	assert.Equal(t, time.February, entities.DateRange.Start.Month())
}

func TestEngineWarrantiesEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, err := engine.AddWarranties(ctx, testUserID, &core.Warranty{
		Product:     "Espresso Machine",
		Brand:       "Breville",
		Retailer:    "Best Buy",
		PurchasedAt: testTime.AddDate(0, -1, 0),
		ExpiresAt:   testTime.AddDate(2, 0, 0),
	})
	require.NoError(t, err)
	engine.WaitForIndexing()

	results, err := engine.SearchDomain(ctx, testUserID, "espresso machine warranty",
		core.EntityTypeWarranty, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, added[0].Id, results[0].ItemId)
	require.NotNil(t, results[0].Warranty)
	assert.Equal(t, "Breville", results[0].Warranty.Brand)
}