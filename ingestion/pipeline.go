package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// EntityEmbedder is the slice of the embedding generator the pipeline needs.
type EntityEmbedder interface {
	EmbedBatch(ctx context.Context, entities []core.Entity) ([]*core.EmbeddingRecord, error)
}

// Pipeline orchestrates ingestion of receipts and warranties: records are
// stored synchronously, then embedded and vector-indexed asynchronously on
// a worker pool. Errors during async processing are logged but do not fail
// the ingestion; the record is durable either way and a later refresh pass
// can fill in a missing vector.
type Pipeline struct {
	receipts   storage.ReceiptRepository
	warranties storage.WarrantyRepository
	pool       *ants.Pool
	indexer    *indexer
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	receipts storage.ReceiptRepository,
	warranties storage.WarrantyRepository,
	vectors storage.VectorStore,
	generator EntityEmbedder,
	opts ...Option,
) (*Pipeline, error) {
	if receipts == nil {
		return nil, ErrReceiptRepositoryRequired
	}
	if warranties == nil {
		return nil, ErrWarrantyRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		receipts:   receipts,
		warranties: warranties,
		pool:       pool,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.indexer = newIndexer(generator, vectors, p.logger)
	return p, nil
}

// IngestReceipts stores receipts for the user and schedules embedding and
// vector indexing in the background. The returned receipts carry generated
// IDs and timestamps.
func (p *Pipeline) IngestReceipts(ctx context.Context, userID core.ID, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	for _, receipt := range receipts {
		receipt.UserId = userID
	}
	added, err := p.receipts.AddReceipts(ctx, receipts...)
	if err != nil {
		return nil, err
	}

	entities := make([]core.Entity, len(added))
	for i, receipt := range added {
		entities[i] = receipt
	}
	p.submitIndex(userID, entities)
	return added, nil
}

// IngestWarranties stores warranties for the user and schedules embedding
// and vector indexing in the background.
func (p *Pipeline) IngestWarranties(ctx context.Context, userID core.ID, warranties ...*core.Warranty) ([]*core.Warranty, error) {
	for _, warranty := range warranties {
		warranty.UserId = userID
	}
	added, err := p.warranties.AddWarranties(ctx, warranties...)
	if err != nil {
		return nil, err
	}

	entities := make([]core.Entity, len(added))
	for i, warranty := range added {
		entities[i] = warranty
	}
	p.submitIndex(userID, entities)
	return added, nil
}

// UpdateReceipts updates stored receipts and schedules re-indexing. A
// content change yields a new content hash, so the stale vector is
// overwritten rather than reused.
func (p *Pipeline) UpdateReceipts(ctx context.Context, userID core.ID, receipts ...*core.Receipt) ([]*core.Receipt, error) {
	for _, receipt := range receipts {
		receipt.UserId = userID
	}
	updated, err := p.receipts.UpdateReceipts(ctx, receipts...)
	if err != nil {
		return nil, err
	}

	entities := make([]core.Entity, len(updated))
	for i, receipt := range updated {
		entities[i] = receipt
	}
	p.submitIndex(userID, entities)
	return updated, nil
}

// RemoveReceipts deletes receipts and their stored vectors.
func (p *Pipeline) RemoveReceipts(ctx context.Context, userID core.ID, ids ...core.ID) error {
	if err := p.receipts.DeleteReceipts(ctx, userID, ids...); err != nil {
		return err
	}
	return p.indexer.remove(ctx, userID, core.EntityTypeReceipt, ids)
}

// RemoveWarranties deletes warranties and their stored vectors.
func (p *Pipeline) RemoveWarranties(ctx context.Context, userID core.ID, ids ...core.ID) error {
	if err := p.warranties.DeleteWarranties(ctx, userID, ids...); err != nil {
		return err
	}
	return p.indexer.remove(ctx, userID, core.EntityTypeWarranty, ids)
}

// submitIndex schedules async indexing. The job runs on a background
// context: ingestion has already succeeded and indexing should finish even
// if the caller's request context ends.
func (p *Pipeline) submitIndex(userID core.ID, entities []core.Entity) {
	if len(entities) == 0 {
		return
	}
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		if err := p.indexer.index(context.Background(), userID, entities); err != nil {
			p.logger.Error("error indexing records", "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.logger.Error("error submitting index job", "err", err)
	}
}

// Wait blocks until all scheduled indexing jobs have finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
