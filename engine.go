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

package ledgerfind

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ledgerfind/ai"
	"github.com/poiesic/ledgerfind/ai/openai"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/embedding"
	"github.com/poiesic/ledgerfind/ingestion"
	"github.com/poiesic/ledgerfind/insight"
	"github.com/poiesic/ledgerfind/query"
	"github.com/poiesic/ledgerfind/refresh"
	"github.com/poiesic/ledgerfind/search"
	"github.com/poiesic/ledgerfind/storage"
	"github.com/poiesic/ledgerfind/storage/badger"
)

// DefaultMemoryCacheSize is the entry capacity of the in-process embedding
// cache tier.
const DefaultMemoryCacheSize = 1024

// Engine is the top-level facade over storage, embedding, search, and
// insight. It owns the stores and worker pools; callers get one Engine per
// database and share it across goroutines.
type Engine struct {
	stores    *badger.Stores
	generator *embedding.Generator
	searcher  *search.Searcher
	insights  *insight.Engine
	pipeline  *ingestion.Pipeline
	vocab     *query.Vocabulary
	logger    *slog.Logger
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	embedder   ai.Embedder
	inMemory   bool
	cacheSize  int
	weights    *search.Weights
	vocab      *query.Vocabulary
	logger     *slog.Logger
	now        func() time.Time
	searchOpts []search.Option
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder overrides the embedding provider. Intended for tests and
// alternative providers.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithInMemory opens the backing store in memory. Nothing is persisted.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMemoryCacheSize sets the in-process embedding cache capacity.
func WithMemoryCacheSize(size int) EngineOption {
	return func(o *engineOptions) {
		if size > 0 {
			o.cacheSize = size
		}
	}
}

// WithWeights sets the hybrid scoring weights.
func WithWeights(weights search.Weights) EngineOption {
	return func(o *engineOptions) {
		o.weights = &weights
	}
}

// WithVocabulary sets the entity-extraction vocabulary.
func WithVocabulary(vocab *query.Vocabulary) EngineOption {
	return func(o *engineOptions) {
		o.vocab = vocab
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for relative date resolution
// and cache TTL checks. Intended for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.now = now
	}
}

// WithSearchOptions appends extra searcher options, such as a custom
// duplicate threshold.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// NewEngine opens the database at filePath and wires the full retrieval
// stack on top of it.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:  ai.DefaultConfig(),
		cacheSize: DefaultMemoryCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stores, err := badger.OpenStores(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
	}

	front, err := embedding.NewMemoryCache(options.cacheSize)
	if err != nil {
		stores.Close()
		return nil, err
	}
	cache := embedding.NewTieredCache(front, embedding.NewStoreCache(stores.Cache))

	var generatorOpts []embedding.Option
	generatorOpts = append(generatorOpts, embedding.WithLogger(options.logger))
	if options.now != nil {
		generatorOpts = append(generatorOpts, embedding.WithClock(options.now))
	}
	generator, err := embedding.NewGenerator(embedder, cache, options.aiConfig, generatorOpts...)
	if err != nil {
		stores.Close()
		return nil, err
	}

	searchOpts := []search.Option{
		search.WithLogger(options.logger),
		search.WithVocabulary(options.vocab),
	}
	if options.weights != nil {
		searchOpts = append(searchOpts, search.WithWeights(*options.weights))
	}
	if options.now != nil {
		searchOpts = append(searchOpts, search.WithClock(options.now))
	}
	searchOpts = append(searchOpts, options.searchOpts...)

	searcher, err := search.NewSearcher(generator, stores.Vectors, stores.TextIndex,
		stores.Receipts, stores.Warranties, searchOpts...)
	if err != nil {
		stores.Close()
		return nil, err
	}

	insightOpts := []insight.Option{
		insight.WithVectorStore(stores.Vectors, generator),
		insight.WithVocabulary(options.vocab),
		insight.WithLogger(options.logger),
	}
	if options.now != nil {
		insightOpts = append(insightOpts, insight.WithClock(options.now))
	}
	insights, err := insight.NewEngine(stores.Receipts, insightOpts...)
	if err != nil {
		stores.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(stores.Receipts, stores.Warranties,
		stores.Vectors, generator, ingestion.WithLogger(options.logger))
	if err != nil {
		stores.Close()
		return nil, err
	}

	now := options.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		stores:    stores,
		generator: generator,
		searcher:  searcher,
		insights:  insights,
		pipeline:  pipeline,
		vocab:     options.vocab,
		logger:    options.logger,
		now:       now,
	}, nil
}

// Close flushes pending indexing work and closes the stores.
func (e *Engine) Close() error {
	e.pipeline.Wait()
	e.pipeline.Release()
	return e.stores.Close()
}

// AddReceipts stores receipts for the user and indexes them in the
// background.
func (e *Engine) AddReceipts(ctx context.Context, userID core.ID, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	return e.pipeline.IngestReceipts(ctx, userID, receipts...)
}

// AddWarranties stores warranties for the user and indexes them in the
// background.
func (e *Engine) AddWarranties(ctx context.Context, userID core.ID, warranties ...*core.Warranty) ([]*core.Warranty, error) {
	return e.pipeline.IngestWarranties(ctx, userID, warranties...)
}

// UpdateReceipts updates stored receipts and re-indexes them.
func (e *Engine) UpdateReceipts(ctx context.Context, userID core.ID, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	return e.pipeline.UpdateReceipts(ctx, userID, receipts...)
}

// RemoveReceipts deletes receipts along with their vectors.
func (e *Engine) RemoveReceipts(ctx context.Context, userID core.ID, ids ...core.ID) error {
	return e.pipeline.RemoveReceipts(ctx, userID, ids...)
}

// RemoveWarranties deletes warranties along with their vectors.
func (e *Engine) RemoveWarranties(ctx context.Context, userID core.ID, ids ...core.ID) error {
	return e.pipeline.RemoveWarranties(ctx, userID, ids...)
}

// Search runs semantic retrieval over both record types.
func (e *Engine) Search(ctx context.Context, userID core.ID, text string, opts *search.Options) ([]*core.SearchResult, error) {
	return e.searcher.Search(ctx, userID, text, opts)
}

// SearchDomain runs semantic retrieval over one record type.
func (e *Engine) SearchDomain(ctx context.Context, userID core.ID, text string, entityType core.EntityType, opts *search.Options) ([]*core.SearchResult, error) {
	return e.searcher.SearchDomain(ctx, userID, text, entityType, opts)
}

// HybridSearch blends semantic and lexical retrieval.
func (e *Engine) HybridSearch(ctx context.Context, userID core.ID, text string, opts *search.Options) ([]*core.SearchResult, error) {
	return e.searcher.HybridSearch(ctx, userID, text, opts)
}

// FindDuplicates returns items suspiciously similar to the reference item.
func (e *Engine) FindDuplicates(ctx context.Context, userID core.ID, entityType core.EntityType, itemID core.ID) ([]*core.DuplicateCandidate, error) {
	return e.searcher.FindDuplicates(ctx, userID, entityType, itemID)
}

// AnalyzeBudget computes spending insights for the trailing timeframe.
func (e *Engine) AnalyzeBudget(ctx context.Context, userID core.ID, queryText string, timeframeDays int, types []insight.Type) (*insight.Report, error) {
	return e.insights.Analyze(ctx, userID, queryText, timeframeDays, types)
}

// ClassifyIntent labels the purpose of a free-text query.
func (e *Engine) ClassifyIntent(text string) core.Intent {
	return query.Classify(text)
}

// ExtractEntities pulls structured filter values out of free query text.
func (e *Engine) ExtractEntities(text string) core.EntityMap {
	return query.Extract(text, e.now(), e.vocab)
}

// RefreshEmbeddings regenerates stale vectors for the user's records.
// Progress is written to progress (typically os.Stderr); nil discards it.
func (e *Engine) RefreshEmbeddings(ctx context.Context, userID core.ID, config *refresh.Config, progress io.Writer) (*refresh.Summary, error) {
	refresher, err := refresh.NewRefresher(e.stores.Receipts, e.stores.Warranties,
		e.stores.Vectors, e.generator, config, progress)
	if err != nil {
		return nil, err
	}
	return refresher.Run(ctx, userID)
}

// HealthCheck reports engine readiness along with the active embedding
// model identity.
func (e *Engine) HealthCheck() core.Health {
	status := "ok"
	if e.stores.Backend.IsClosed() {
		status = "unavailable"
	}
	return core.Health{
		Status:          status,
		ModelId:         e.generator.ModelId(),
		VectorDimension: e.generator.VectorDimension(),
	}
}

// WaitForIndexing blocks until background indexing has caught up. Searches
// issued before this returns may miss freshly added records.
func (e *Engine) WaitForIndexing() {
	e.pipeline.Wait()
}

// Receipts exposes the receipt repository for direct record access.
func (e *Engine) Receipts() storage.ReceiptRepository {
	return e.stores.Receipts
}

// Warranties exposes the warranty repository for direct record access.
func (e *Engine) Warranties() storage.WarrantyRepository {
	return e.stores.Warranties
}
