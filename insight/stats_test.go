package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ledgerfind/core"
)

func receiptWith(merchant, category string, amount float64, purchasedAt time.Time) *core.Receipt {
	return &core.Receipt{
		Merchant:    merchant,
		Category:    category,
		Amount:      amount,
		PurchasedAt: purchasedAt,
	}
}

func TestComputePatterns(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	receipts := []*core.Receipt{
		receiptWith("Whole Foods", "groceries", 60, now),
		receiptWith("whole foods", "groceries", 40, now),
		receiptWith("Shell", "fuel", 45, now),
		receiptWith("Corner Cafe", "", 15, now),
	}

	patterns := computePatterns(receipts, DefaultTopMerchants)
	assert.Equal(t, 4, patterns.ReceiptCount)
	assert.InDelta(t, 160.0, patterns.Total, 1e-9)
	assert.InDelta(t, 40.0, patterns.AverageAmount, 1e-9)

	require.Len(t, patterns.CategoryTotals, 3)
	assert.Equal(t, "groceries", patterns.CategoryTotals[0].Category)
	assert.InDelta(t, 100.0, patterns.CategoryTotals[0].Total, 1e-9)
	assert.Equal(t, 2, patterns.CategoryTotals[0].Count)
	assert.Equal(t, "fuel", patterns.CategoryTotals[1].Category)
	assert.Equal(t, "uncategorized", patterns.CategoryTotals[2].Category)

	// Merchant grouping is case-insensitive; first spelling labels the group.
	require.Len(t, patterns.TopMerchants, 3)
	assert.Equal(t, "Whole Foods", patterns.TopMerchants[0].Merchant)
	assert.InDelta(t, 100.0, patterns.TopMerchants[0].Total, 1e-9)
	assert.Equal(t, 2, patterns.TopMerchants[0].Count)
}

func TestComputePatternsTopMerchantsCap(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	receipts := []*core.Receipt{
		receiptWith("A", "misc", 10, now),
		receiptWith("B", "misc", 20, now),
		receiptWith("C", "misc", 30, now),
	}

	patterns := computePatterns(receipts, 2)
	require.Len(t, patterns.TopMerchants, 2)
	assert.Equal(t, "C", patterns.TopMerchants[0].Merchant)
	assert.Equal(t, "B", patterns.TopMerchants[1].Merchant)
}

func TestComputePatternsEmpty(t *testing.T) {
	patterns := computePatterns(nil, DefaultTopMerchants)
	assert.Equal(t, 0, patterns.ReceiptCount)
	assert.Zero(t, patterns.Total)
	assert.Zero(t, patterns.AverageAmount)
	assert.Empty(t, patterns.CategoryTotals)
}

func TestComputeAnomalies(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	amounts := []float64{10, 12, 11, 13, 14, 100, 9, 12, 11, 13}
	receipts := make([]*core.Receipt, len(amounts))
	for i, amount := range amounts {
		receipts[i] = receiptWith("Shop", "misc", amount, now)
	}

	anomalies := computeAnomalies(receipts, DefaultAnomalySigma)
	require.Len(t, anomalies, 1)
	assert.InDelta(t, 100.0, anomalies[0].Receipt.Amount, 1e-9)
	assert.InDelta(t, 20.5, anomalies[0].Mean, 1e-9)
	assert.Greater(t, anomalies[0].Deviation, DefaultAnomalySigma)
}

func TestComputeAnomaliesNeedsEnoughData(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	receipts := []*core.Receipt{
		receiptWith("A", "misc", 10, now),
		receiptWith("B", "misc", 1000, now),
	}
	assert.Nil(t, computeAnomalies(receipts, DefaultAnomalySigma))
}

func TestComputeAnomaliesUniformAmounts(t *testing.T) {
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	receipts := []*core.Receipt{
		receiptWith("A", "misc", 25, now),
		receiptWith("B", "misc", 25, now),
		receiptWith("C", "misc", 25, now),
	}
	assert.Nil(t, computeAnomalies(receipts, DefaultAnomalySigma))
}

func TestComputeTrend(t *testing.T) {
	window := core.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	receipts := []*core.Receipt{
		receiptWith("A", "misc", 10, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		receiptWith("B", "misc", 30, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)),
	}

	trend := computeTrend(receipts, window)
	assert.InDelta(t, 10.0, trend.FirstHalfTotal, 1e-9)
	assert.InDelta(t, 30.0, trend.SecondHalfTotal, 1e-9)
	assert.InDelta(t, 20.0, trend.Delta, 1e-9)
	assert.Equal(t, TrendRising, trend.Direction)
}

func TestComputeTrendFalling(t *testing.T) {
	window := core.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	receipts := []*core.Receipt{
		receiptWith("A", "misc", 50, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		receiptWith("B", "misc", 20, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)),
	}

	trend := computeTrend(receipts, window)
	assert.Equal(t, TrendFalling, trend.Direction)
}

func TestComputeTrendFlatWhenEmpty(t *testing.T) {
	window := core.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}

	trend := computeTrend(nil, window)
	assert.Equal(t, TrendFlat, trend.Direction)
	assert.Zero(t, trend.Delta)
}
