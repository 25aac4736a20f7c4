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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/query"
	"github.com/poiesic/ledgerfind/storage"
)

const (
	// DefaultTimeframeDays is the analysis window when the caller gives none.
	DefaultTimeframeDays = 30

	// DefaultAnomalySigma flags amounts beyond this many standard
	// deviations above the mean.
	DefaultAnomalySigma = 2.0

	// DefaultTopMerchants caps the merchant breakdown.
	DefaultTopMerchants = 5

	// semanticFloor is the minimum similarity for a receipt to count as
	// relevant to the query during semantic subsetting. Rescaled cosine
	// similarity puts orthogonal content at 0.5.
	semanticFloor = 0.6
)

var (
	ErrReceiptRepositoryRequired = errors.New("receipt repository is required")
	ErrInvalidInsightType        = errors.New("invalid insight type")
)

// Type selects which analyses Analyze runs.
type Type string

const (
	TypePatterns  Type = "patterns"
	TypeAnomalies Type = "anomalies"
	TypeTrends    Type = "trends"
)

// Report is the output of one Analyze call. Only the sections matching the
// requested types are populated.
type Report struct {
	Timeframe core.DateRange
	Patterns  *SpendingPatterns
	Anomalies []Anomaly
	Trends    *Trend
}

// QueryEmbedder produces one query vector for semantic subsetting.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Engine computes spending insights over a user's receipts. Retrieval is
// timeframe-bounded; when the query text carries semantic content beyond a
// time phrase, one query embedding narrows the set to semantically relevant
// receipts before aggregation. The engine itself does pure statistics.
type Engine struct {
	receipts     storage.ReceiptRepository
	vectors      storage.VectorStore
	embedder     QueryEmbedder
	vocab        *query.Vocabulary
	anomalySigma float64
	topMerchants int
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithVectorStore enables semantic subsetting. Without it every receipt in
// the timeframe is analyzed.
func WithVectorStore(vectors storage.VectorStore, embedder QueryEmbedder) Option {
	return func(e *Engine) {
		e.vectors = vectors
		e.embedder = embedder
	}
}

// WithVocabulary sets the extraction vocabulary for query understanding.
func WithVocabulary(vocab *query.Vocabulary) Option {
	return func(e *Engine) {
		e.vocab = vocab
	}
}

// WithAnomalySigma sets the outlier threshold in standard deviations.
func WithAnomalySigma(sigma float64) Option {
	return func(e *Engine) {
		if sigma > 0 {
			e.anomalySigma = sigma
		}
	}
}

// WithTopMerchants caps the merchant breakdown length.
func WithTopMerchants(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.topMerchants = limit
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an insight engine over the given receipt repository.
func NewEngine(receipts storage.ReceiptRepository, opts ...Option) (*Engine, error) {
	if receipts == nil {
		return nil, ErrReceiptRepositoryRequired
	}

	e := &Engine{
		receipts:     receipts,
		anomalySigma: DefaultAnomalySigma,
		topMerchants: DefaultTopMerchants,
		logger:       slog.Default(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Analyze retrieves the user's receipts for the trailing timeframe and runs
// the requested analyses. An empty types slice runs all of them. Zero
// matching receipts produce a report with empty sections, not an error.
func (e *Engine) Analyze(ctx context.Context, userID core.ID, queryText string, timeframeDays int, types []Type) (*Report, error) {
	if timeframeDays <= 0 {
		timeframeDays = DefaultTimeframeDays
	}
	if len(types) == 0 {
		types = []Type{TypePatterns, TypeAnomalies, TypeTrends}
	}
	for _, insightType := range types {
		switch insightType {
		case TypePatterns, TypeAnomalies, TypeTrends:
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidInsightType, insightType)
		}
	}

	end := e.now().UTC()
	window := core.DateRange{Start: end.AddDate(0, 0, -timeframeDays), End: end}

	parsed := query.Parse(queryText, end, e.vocab)

	receipts, err := e.receipts.GetReceiptsByDateRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	receipts = filterReceipts(receipts, parsed.Entities)

	if e.semanticQuery(parsed) && len(receipts) > 0 {
		receipts, err = e.semanticSubset(ctx, userID, parsed.RawText, window, receipts)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Timeframe: window}
	for _, insightType := range types {
		switch insightType {
		case TypePatterns:
			report.Patterns = computePatterns(receipts, e.topMerchants)
		case TypeAnomalies:
			report.Anomalies = computeAnomalies(receipts, e.anomalySigma)
		case TypeTrends:
			report.Trends = computeTrend(receipts, window)
		}
	}
	return report, nil
}

// filterReceipts applies extracted category/merchant/amount slots directly.
func filterReceipts(receipts []*core.Receipt, entities core.EntityMap) []*core.Receipt {
	if entities.Category == "" && entities.Merchant == "" && entities.AmountRange == nil {
		return receipts
	}
	filters := &storage.Filters{
		Category:    entities.Category,
		Merchant:    entities.Merchant,
		AmountRange: entities.AmountRange,
	}

	filtered := receipts[:0]
	for _, receipt := range receipts {
		if filters.MatchesReceipt(receipt) {
			filtered = append(filtered, receipt)
		}
	}
	return filtered
}

// semanticQuery reports whether the query carries content beyond time and
// filter phrases, warranting one embedding call to subset the receipts.
func (e *Engine) semanticQuery(parsed *core.Query) bool {
	if e.vectors == nil || e.embedder == nil {
		return false
	}
	if strings.TrimSpace(parsed.NormalizedText) == "" {
		return false
	}
	return !timeOnlyQuery(parsed.NormalizedText)
}

// timeWords are tokens that make up pure time-bounding phrases like
// "last month" or "past 30 days".
var timeWords = map[string]bool{
	"last": true, "this": true, "past": true, "previous": true,
	"today": true, "yesterday": true,
	"day": true, "days": true, "week": true, "weeks": true,
	"month": true, "months": true, "year": true, "years": true,
	"in": true, "the": true, "for": true, "of": true, "my": true,
	"spending": true, "spent": true, "receipts": true, "purchases": true,
}

func timeOnlyQuery(lowered string) bool {
	for _, word := range strings.Fields(lowered) {
		word = strings.Trim(word, ".,!?;:'\"()$")
		if word == "" || timeWords[word] {
			continue
		}
		if _, err := strconv.Atoi(word); err == nil {
			continue
		}
		return false
	}
	return true
}

// semanticSubset keeps only receipts the vector store ranks as relevant to
// the query. A failed embedding degrades to the unfiltered set rather than
// failing the analysis.
func (e *Engine) semanticSubset(ctx context.Context, userID core.ID, text string, window core.DateRange, receipts []*core.Receipt) ([]*core.Receipt, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		e.logger.Warn("insight query embedding failed, analyzing full timeframe", "err", err)
		return receipts, nil
	}

	filters := &storage.Filters{
		EntityType: core.EntityTypeReceipt,
		DateRange:  &window,
	}
	matches, err := e.vectors.Query(ctx, vector, userID, filters, len(receipts))
	if err != nil {
		return nil, err
	}

	relevant := make(map[core.ID]bool, len(matches))
	for _, match := range matches {
		if match.Similarity >= semanticFloor {
			relevant[match.EntityId] = true
		}
	}

	subset := receipts[:0]
	for _, receipt := range receipts {
		if relevant[receipt.Id] {
			subset = append(subset, receipt)
		}
	}
	return subset, nil
}
