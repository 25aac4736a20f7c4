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

package insight

import (
	"math"
	"slices"
	"strings"

	"github.com/poiesic/ledgerfind/core"
)

// SpendingPatterns aggregates a receipt set: overall totals, per-category
// breakdown, and the heaviest merchants.
type SpendingPatterns struct {
	Total          float64
	ReceiptCount   int
	AverageAmount  float64
	CategoryTotals []CategoryTotal
	TopMerchants   []MerchantTotal
}

// CategoryTotal is spending within one category.
type CategoryTotal struct {
	Category string
	Total    float64
	Count    int
}

// MerchantTotal is spending at one merchant.
type MerchantTotal struct {
	Merchant string
	Total    float64
	Count    int
}

// Anomaly flags a receipt whose amount sits far above the mean of the
// analyzed set. Deviation is the distance from the mean in standard
// deviations.
type Anomaly struct {
	Receipt   *core.Receipt
	Mean      float64
	StdDev    float64
	Deviation float64
}

// Trend compares spending in the first and second halves of the analyzed
// window. Direction is "rising", "falling", or "flat".
type Trend struct {
	FirstHalfTotal  float64
	SecondHalfTotal float64
	Delta           float64
	Direction       string
}

const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendFlat    = "flat"
)

// computePatterns aggregates totals, category breakdown, and top merchants.
// Category and merchant groupings are case-insensitive; the first spelling
// seen labels the group. Breakdown rows sort by total descending, then
// name ascending for deterministic output.
func computePatterns(receipts []*core.Receipt, topMerchants int) *SpendingPatterns {
	patterns := &SpendingPatterns{ReceiptCount: len(receipts)}
	if len(receipts) == 0 {
		return patterns
	}

	categories := make(map[string]*CategoryTotal)
	merchants := make(map[string]*MerchantTotal)
	for _, receipt := range receipts {
		patterns.Total += receipt.Amount

		category := receipt.Category
		if category == "" {
			category = "uncategorized"
		}
		key := strings.ToLower(category)
		if row, ok := categories[key]; ok {
			row.Total += receipt.Amount
			row.Count++
		} else {
			categories[key] = &CategoryTotal{Category: category, Total: receipt.Amount, Count: 1}
		}

		if receipt.Merchant != "" {
			key = strings.ToLower(receipt.Merchant)
			if row, ok := merchants[key]; ok {
				row.Total += receipt.Amount
				row.Count++
			} else {
				merchants[key] = &MerchantTotal{Merchant: receipt.Merchant, Total: receipt.Amount, Count: 1}
			}
		}
	}
	patterns.AverageAmount = patterns.Total / float64(len(receipts))

	for _, row := range categories {
		patterns.CategoryTotals = append(patterns.CategoryTotals, *row)
	}
	slices.SortFunc(patterns.CategoryTotals, func(a, b CategoryTotal) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Category, b.Category)
	})

	for _, row := range merchants {
		patterns.TopMerchants = append(patterns.TopMerchants, *row)
	}
	slices.SortFunc(patterns.TopMerchants, func(a, b MerchantTotal) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Merchant, b.Merchant)
	})
	if topMerchants > 0 && len(patterns.TopMerchants) > topMerchants {
		patterns.TopMerchants = patterns.TopMerchants[:topMerchants]
	}

	return patterns
}

// computeAnomalies flags receipts whose amount exceeds mean + sigma·stddev
// over the analyzed set. Fewer than three receipts give no basis for an
// outlier call.
func computeAnomalies(receipts []*core.Receipt, sigma float64) []Anomaly {
	if len(receipts) < 3 {
		return nil
	}

	var sum float64
	for _, receipt := range receipts {
		sum += receipt.Amount
	}
	mean := sum / float64(len(receipts))

	var variance float64
	for _, receipt := range receipts {
		diff := receipt.Amount - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(receipts)))
	if stddev == 0 {
		return nil
	}

	threshold := mean + sigma*stddev
	var anomalies []Anomaly
	for _, receipt := range receipts {
		if receipt.Amount > threshold {
			anomalies = append(anomalies, Anomaly{
				Receipt:   receipt,
				Mean:      mean,
				StdDev:    stddev,
				Deviation: (receipt.Amount - mean) / stddev,
			})
		}
	}
	return anomalies
}

// computeTrend splits the window at its midpoint and compares half totals.
// Deltas under one cent read as flat.
func computeTrend(receipts []*core.Receipt, window core.DateRange) *Trend {
	midpoint := window.Start.Add(window.End.Sub(window.Start) / 2)

	trend := &Trend{}
	for _, receipt := range receipts {
		if receipt.PurchasedAt.Before(midpoint) {
			trend.FirstHalfTotal += receipt.Amount
		} else {
			trend.SecondHalfTotal += receipt.Amount
		}
	}

	trend.Delta = trend.SecondHalfTotal - trend.FirstHalfTotal
	switch {
	case trend.Delta > 0.01:
		trend.Direction = TrendRising
	case trend.Delta < -0.01:
		trend.Direction = TrendFalling
	default:
		trend.Direction = TrendFlat
	}
	return trend
}
