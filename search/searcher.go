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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/query"
	"github.com/poiesic/ledgerfind/storage"
)

const (
	// MaxQueryLength is the longest query text accepted, in runes.
	MaxQueryLength = 1000

	// DefaultLimit is the result count when the caller asks for none.
	DefaultLimit = 10

	// DefaultDuplicateThreshold is the minimum similarity for a
	// duplicate candidate. The boundary is inclusive.
	DefaultDuplicateThreshold = 0.85

	// DefaultDuplicateLimit caps duplicate candidates per reference item.
	DefaultDuplicateLimit = 20
)

// QueryEmbedder is the slice of the embedding generator the searcher needs.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher orchestrates semantic, lexical, and hybrid retrieval over a
// user's receipts and warranties. Query text is validated and understood
// before anything touches the embedding provider, so malformed input never
// costs a network call.
type Searcher struct {
	embedder           QueryEmbedder
	vectors            storage.VectorStore
	textIndex          storage.TextIndex
	receipts           storage.ReceiptRepository
	warranties         storage.WarrantyRepository
	weights            Weights
	duplicateThreshold float64
	duplicateLimit     int
	vocab              *query.Vocabulary
	logger             *slog.Logger
	now                func() time.Time
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the hybrid scoring weights.
func WithWeights(weights Weights) Option {
	return func(s *Searcher) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		s.weights = weights
		return nil
	}
}

// WithDuplicateThreshold sets the minimum similarity for duplicate
// candidates.
func WithDuplicateThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		s.duplicateThreshold = threshold
		return nil
	}
}

// WithDuplicateLimit caps duplicate candidates per reference item.
func WithDuplicateLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit > 0 {
			s.duplicateLimit = limit
		}
		return nil
	}
}

// WithVocabulary sets the extraction vocabulary used during query
// understanding. Default is query.DefaultVocabulary().
func WithVocabulary(vocab *query.Vocabulary) Option {
	return func(s *Searcher) error {
		s.vocab = vocab
		return nil
	}
}

// WithClock overrides the time source used to resolve relative date
// phrases. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) error {
		s.now = now
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	embedder QueryEmbedder,
	vectors storage.VectorStore,
	textIndex storage.TextIndex,
	receipts storage.ReceiptRepository,
	warranties storage.WarrantyRepository,
	opts ...Option,
) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrGeneratorRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if textIndex == nil {
		return nil, ErrTextIndexRequired
	}
	if receipts == nil {
		return nil, ErrReceiptRepositoryRequired
	}
	if warranties == nil {
		return nil, ErrWarrantyRepositoryRequired
	}

	s := &Searcher{
		embedder:           embedder,
		vectors:            vectors,
		textIndex:          textIndex,
		receipts:           receipts,
		warranties:         warranties,
		weights:            DefaultWeights,
		duplicateThreshold: DefaultDuplicateThreshold,
		duplicateLimit:     DefaultDuplicateLimit,
		logger:             slog.Default(),
		now:                func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Options holds optional parameters for a search call.
type Options struct {
	// Limit caps the result count. Zero means DefaultLimit.
	Limit int

	// Filters are explicit structured filters. Where a filter is set it
	// wins over anything extracted from the query text.
	Filters *storage.Filters

	// Monitor receives callbacks at each stage of the search.
	Monitor SearchMonitor
}

func (o *Options) normalize() (int, *storage.Filters, SearchMonitor) {
	if o == nil {
		o = &Options{}
	}
	monitor := o.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return limit, o.Filters, monitor
}

// Search runs semantic retrieval over both domains: the query text is
// understood, embedded, and matched against stored vectors. Results carry
// the vector score as their combined score.
func (s *Searcher) Search(ctx context.Context, userID core.ID, text string, opts *Options) ([]*core.SearchResult, error) {
	limit, explicit, monitor := opts.normalize()

	if err := validateQuery(text); err != nil {
		return nil, err
	}

	monitor.Start(text)
	parsed := query.Parse(text, s.now(), s.vocab)
	monitor.AfterQueryUnderstanding(parsed)

	filters, relaxed := buildFilters(parsed.Entities, explicit)

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	matches, err := s.vectors.Query(ctx, vector, userID, filters, limit)
	if err != nil {
		s.logger.Error("error querying for similar items", "err", err)
		return nil, err
	}
	if len(matches) == 0 && relaxed != nil {
		matches, err = s.vectors.Query(ctx, vector, userID, relaxed, limit)
		if err != nil {
			s.logger.Error("error querying for similar items", "err", err)
			return nil, err
		}
	}
	monitor.AfterVectorSearch(matches)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, &core.SearchResult{
			ItemId:        match.EntityId,
			ItemType:      match.EntityType,
			VectorScore:   match.Similarity,
			CombinedScore: match.Similarity,
		})
	}

	results, err = s.hydrate(ctx, userID, results)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)
	return results, nil
}

// SearchDomain runs semantic retrieval restricted to one entity type.
func (s *Searcher) SearchDomain(ctx context.Context, userID core.ID, text string, entityType core.EntityType, opts *Options) ([]*core.SearchResult, error) {
	if err := core.ValidateEntityType(entityType); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &Options{}
	}
	scoped := *opts
	if scoped.Filters == nil {
		scoped.Filters = &storage.Filters{}
	} else {
		filtersCopy := *scoped.Filters
		scoped.Filters = &filtersCopy
	}
	scoped.Filters.EntityType = entityType

	return s.Search(ctx, userID, text, &scoped)
}

// HybridSearch blends vector and lexical retrieval. Both branches run over
// the same filters; their hits merge through CombineScores under the
// searcher's weights.
func (s *Searcher) HybridSearch(ctx context.Context, userID core.ID, text string, opts *Options) ([]*core.SearchResult, error) {
	limit, explicit, monitor := opts.normalize()

	if err := validateQuery(text); err != nil {
		return nil, err
	}

	monitor.Start(text)
	parsed := query.Parse(text, s.now(), s.vocab)
	monitor.AfterQueryUnderstanding(parsed)

	filters, relaxed := buildFilters(parsed.Entities, explicit)

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	// Over-fetch both branches so the merge has candidates to rerank.
	fetchLimit := limit * 2

	vectorMatches, err := s.vectors.Query(ctx, vector, userID, filters, fetchLimit)
	if err != nil {
		s.logger.Error("error querying for similar items", "err", err)
		return nil, err
	}

	textMatches, err := s.textIndex.Query(ctx, text, userID, filters, fetchLimit)
	if err != nil {
		s.logger.Error("error querying text index", "err", err)
		return nil, err
	}

	if len(vectorMatches) == 0 && len(textMatches) == 0 && relaxed != nil {
		vectorMatches, err = s.vectors.Query(ctx, vector, userID, relaxed, fetchLimit)
		if err != nil {
			s.logger.Error("error querying for similar items", "err", err)
			return nil, err
		}
		textMatches, err = s.textIndex.Query(ctx, text, userID, relaxed, fetchLimit)
		if err != nil {
			s.logger.Error("error querying text index", "err", err)
			return nil, err
		}
	}
	monitor.AfterVectorSearch(vectorMatches)
	monitor.AfterTextSearch(textMatches)

	results, err := CombineScores(vectorMatches, textMatches, s.weights)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}

	results, err = s.hydrate(ctx, userID, results)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)
	return results, nil
}

// FindDuplicates returns stored items suspiciously similar to a reference
// item, at or above the searcher's similarity threshold. The reference
// itself is never a candidate. A missing reference item or a reference
// without an indexed embedding reports storage.ErrNotFound, so the caller
// can prompt re-processing instead of mistaking it for a clean result.
func (s *Searcher) FindDuplicates(ctx context.Context, userID core.ID, entityType core.EntityType, itemID core.ID) ([]*core.DuplicateCandidate, error) {
	if err := core.ValidateEntityType(entityType); err != nil {
		return nil, err
	}

	if _, err := s.getEntity(ctx, userID, entityType, itemID); err != nil {
		return nil, err
	}

	record, err := s.vectors.GetEmbedding(ctx, userID, entityType, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reference %s %d is not indexed: %w",
			entityType, itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	filters := &storage.Filters{
		EntityType: entityType,
		ExcludeId:  itemID,
	}
	matches, err := s.vectors.Query(ctx, record.Vector, userID, filters, s.duplicateLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]*core.DuplicateCandidate, 0, len(matches))
	for _, match := range matches {
		if match.Similarity < s.duplicateThreshold {
			continue
		}
		candidates = append(candidates, &core.DuplicateCandidate{
			ItemId:      match.EntityId,
			ReferenceId: itemID,
			Similarity:  match.Similarity,
		})
	}
	return candidates, nil
}

// getEntity loads the reference item for duplicate detection.
func (s *Searcher) getEntity(ctx context.Context, userID core.ID, entityType core.EntityType, itemID core.ID) (core.Entity, error) {
	switch entityType {
	case core.EntityTypeReceipt:
		return s.receipts.GetReceipt(ctx, userID, itemID)
	case core.EntityTypeWarranty:
		return s.warranties.GetWarranty(ctx, userID, itemID)
	default:
		return nil, core.ValidateEntityType(entityType)
	}
}

// hydrate attaches the full receipt or warranty to each result. Results
// whose item vanished between indexing and retrieval are dropped.
func (s *Searcher) hydrate(ctx context.Context, userID core.ID, results []*core.SearchResult) ([]*core.SearchResult, error) {
	var receiptIDs, warrantyIDs []core.ID
	for _, result := range results {
		switch result.ItemType {
		case core.EntityTypeReceipt:
			receiptIDs = append(receiptIDs, result.ItemId)
		case core.EntityTypeWarranty:
			warrantyIDs = append(warrantyIDs, result.ItemId)
		}
	}

	receiptsByID := make(map[core.ID]*core.Receipt)
	if len(receiptIDs) > 0 {
		receipts, err := s.receipts.GetReceipts(ctx, userID, receiptIDs...)
		if err != nil {
			return nil, err
		}
		for _, receipt := range receipts {
			receiptsByID[receipt.Id] = receipt
		}
	}

	warrantiesByID := make(map[core.ID]*core.Warranty)
	if len(warrantyIDs) > 0 {
		warranties, err := s.warranties.GetWarranties(ctx, userID, warrantyIDs...)
		if err != nil {
			return nil, err
		}
		for _, warranty := range warranties {
			warrantiesByID[warranty.Id] = warranty
		}
	}

	hydrated := make([]*core.SearchResult, 0, len(results))
	for _, result := range results {
		switch result.ItemType {
		case core.EntityTypeReceipt:
			receipt, ok := receiptsByID[result.ItemId]
			if !ok {
				continue
			}
			result.Receipt = receipt
		case core.EntityTypeWarranty:
			warranty, ok := warrantiesByID[result.ItemId]
			if !ok {
				continue
			}
			result.Warranty = warranty
		}
		hydrated = append(hydrated, result)
	}
	return hydrated, nil
}

// validateQuery rejects empty and oversized query text before any
// provider call is made.
func validateQuery(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyQuery
	}
	if utf8.RuneCountInString(text) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// buildFilters merges extracted query entities with explicit filters.
// Explicit values win slot by slot. The second return value is a relaxed
// variant without the extracted category/merchant/product hints; it is nil
// when no such hint survived the merge. Hints are free text matched against
// metadata, so when they filter out every candidate the search retries with
// the relaxed set instead of returning nothing for an uncategorized ledger.
func buildFilters(entities core.EntityMap, explicit *storage.Filters) (*storage.Filters, *storage.Filters) {
	filters := &storage.Filters{
		DateRange:   entities.DateRange,
		AmountRange: entities.AmountRange,
		Category:    entities.Category,
		Merchant:    entities.Merchant,
		Product:     entities.Product,
	}

	if explicit != nil {
		if explicit.EntityType != "" {
			filters.EntityType = explicit.EntityType
		}
		if explicit.Category != "" {
			filters.Category = explicit.Category
		}
		if explicit.Merchant != "" {
			filters.Merchant = explicit.Merchant
		}
		if explicit.Product != "" {
			filters.Product = explicit.Product
		}
		if explicit.DateRange != nil {
			filters.DateRange = explicit.DateRange
		}
		if explicit.AmountRange != nil {
			filters.AmountRange = explicit.AmountRange
		}
		if explicit.ExcludeId != 0 {
			filters.ExcludeId = explicit.ExcludeId
		}
	}

	relaxed := *filters
	relaxed.Category = ""
	relaxed.Merchant = ""
	relaxed.Product = ""
	if explicit != nil {
		relaxed.Category = explicit.Category
		relaxed.Merchant = explicit.Merchant
		relaxed.Product = explicit.Product
	}
	if relaxed == *filters {
		return filters, nil
	}
	return filters, &relaxed
}
