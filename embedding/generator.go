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
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ledgerfind/ai"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultCacheTTL is how long a cached embedding stays usable.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultChunkSize is how many entities a batch embeds per chunk.
	DefaultChunkSize = 10

	// DefaultChunkDelay is the pause between batch chunks, keeping bulk
	// operations under provider rate limits.
	DefaultChunkDelay = 200 * time.Millisecond

	// DefaultRetryBackoff is the wait before the single retry of a
	// rate-limited request.
	DefaultRetryBackoff = 2 * time.Second
)

// Generator produces embeddings for domain entities and queries. Entity
// embeddings go through the cache: identical canonical text within the TTL
// never hits the provider twice. Freshness is judged when a hit is read,
// so no background eviction runs.
type Generator struct {
	embedder     ai.Embedder
	cache        Cache
	config       *ai.Config
	cacheTTL     time.Duration
	retryBackoff time.Duration
	chunkSize    int
	chunkDelay   time.Duration
	poolSize     int
	limiter      *rate.Limiter
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCacheTTL sets how long cached embeddings stay usable.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Generator) {
		g.cacheTTL = ttl
	}
}

// WithRetryBackoff sets the wait before retrying a rate-limited request.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(g *Generator) {
		g.retryBackoff = backoff
	}
}

// WithChunkSize sets how many entities a batch embeds per chunk.
func WithChunkSize(size int) Option {
	return func(g *Generator) {
		if size > 0 {
			g.chunkSize = size
		}
	}
}

// WithChunkDelay sets the pause between batch chunks.
func WithChunkDelay(delay time.Duration) Option {
	return func(g *Generator) {
		g.chunkDelay = delay
	}
}

// WithPoolSize sets the worker pool size for batch embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(g *Generator) {
		if size > 0 {
			g.poolSize = size
		}
	}
}

// WithRateLimit throttles provider calls to the given requests per second.
// Zero or negative rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Generator) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithClock overrides the time source used for freshness checks.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator over an embedder and a cache.
func NewGenerator(embedder ai.Embedder, cache Cache, config *ai.Config, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	g := &Generator{
		embedder:     embedder,
		cache:        cache,
		config:       config,
		cacheTTL:     DefaultCacheTTL,
		retryBackoff: DefaultRetryBackoff,
		chunkSize:    DefaultChunkSize,
		chunkDelay:   DefaultChunkDelay,
		poolSize:     poolSize,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ModelId returns the configured embedding model identifier.
func (g *Generator) ModelId() string {
	return g.config.EmbeddingModel
}

// VectorDimension returns the configured embedding length.
func (g *Generator) VectorDimension() int {
	return g.config.VectorDimension
}

// EmbedEntity returns the embedding record for an entity, from cache when a
// fresh record exists, generating and caching otherwise.
func (g *Generator) EmbedEntity(ctx context.Context, entity core.Entity) (*core.EmbeddingRecord, error) {
	text, err := CanonicalText(entity)
	if err != nil {
		return nil, err
	}

	hash := core.HashContent(text)
	cached, err := g.cache.Get(ctx, entity.Type(), hash)
	if err == nil && g.isFresh(cached) {
		// The cached record may have been produced for a different entity
		// with identical content; stamp the requester's identity on a copy.
		record := *cached
		record.EntityId = entity.EntityID()
		record.EntityType = entity.Type()
		return &record, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		// A broken cache degrades to a miss, never a failed request.
		g.logger.Warn("cache read failed, regenerating", "entityType", entity.Type(),
			"entityId", entity.EntityID(), "err", err)
	}

	vector, err := g.embedText(ctx, text)
	if err != nil {
		return nil, &GenerationError{EntityType: entity.Type(), EntityId: entity.EntityID(), Err: err}
	}

	record := &core.EmbeddingRecord{
		ContentHash: hash,
		Vector:      vector,
		ModelId:     g.config.EmbeddingModel,
		EntityType:  entity.Type(),
		EntityId:    entity.EntityID(),
		CreatedAt:   g.now(),
	}

	// A cancelled context means the caller has moved on; don't publish a
	// record it never received.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := g.cache.Put(ctx, record); err != nil {
		g.logger.Warn("failed to cache embedding", "entityType", record.EntityType,
			"entityId", record.EntityId, "err", err)
	}
	return record, nil
}

// EmbedQuery returns the embedding for free query text, after domain
// expansion. Query vectors are not cached; queries rarely repeat verbatim.
func (g *Generator) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	return g.embedText(ctx, ExpandQuery(text))
}

// EmbedBatch embeds many entities, working through them in rate-friendly
// chunks with a worker pool. The returned slice is index-paired with the
// input; a failed entity leaves a nil entry and its error joined into the
// returned error. When every entity fails the error wraps ErrAllFailed.
func (g *Generator) EmbedBatch(ctx context.Context, entities []core.Entity) ([]*core.EmbeddingRecord, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(g.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]*core.EmbeddingRecord, len(entities))
	failures := make([]error, len(entities))

	for start := 0; start < len(entities); start += g.chunkSize {
		if start > 0 && g.chunkDelay > 0 {
			timer := time.NewTimer(g.chunkDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}

		end := start + g.chunkSize
		if end > len(entities) {
			end = len(entities)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				record, err := g.EmbedEntity(ctx, entities[i])
				if err != nil {
					failures[i] = err
					return
				}
				results[i] = record
			})
			if submitErr != nil {
				failures[i] = submitErr
				wg.Done()
			}
		}
		wg.Wait()
	}

	succeeded := 0
	for _, record := range results {
		if record != nil {
			succeeded++
		}
	}
	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return results, nil
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
	}
	g.logger.Warn("batch embedding completed with failures",
		"succeeded", succeeded, "failed", len(errs))
	return results, errors.Join(errs...)
}

// embedText calls the provider with rate limiting, one retry on
// throttling, and dimension checking. Vectors come back unit-normalized.
func (g *Generator) embedText(ctx context.Context, text string) ([]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vector, err := g.embedder.EmbedText(ctx, text)
	if errors.Is(err, ai.ErrRateLimited) {
		timer := time.NewTimer(g.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		vector, err = g.embedder.EmbedText(ctx, text)
	}
	if err != nil {
		return nil, err
	}

	if len(vector) != g.config.VectorDimension {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			ErrDimensionMismatch, g.config.VectorDimension, len(vector))
	}
	return NormalizeVector(vector), nil
}

// isFresh reports whether a cached record is still usable: same model,
// right dimension, within the TTL.
func (g *Generator) isFresh(record *core.EmbeddingRecord) bool {
	if record.ModelId != g.config.EmbeddingModel {
		return false
	}
	if len(record.Vector) != g.config.VectorDimension {
		return false
	}
	return g.now().Sub(record.CreatedAt) <= g.cacheTTL
}
