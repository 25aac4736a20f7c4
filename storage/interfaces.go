package storage

import (
	"context"
	"time"

	"github.com/poiesic/ledgerfind/core"
)

// Filters restricts candidate sets at the store boundary. Zero-valued fields
// are ignored. Every query is additionally scoped to a single user by the
// userID argument on the store methods; filters never widen that scope.
type Filters struct {
	EntityType  core.EntityType
	Category    string
	Merchant    string
	Product     string
	DateRange   *core.DateRange
	AmountRange *core.AmountRange

	// ExcludeId drops one item from the candidate set, used by duplicate
	// detection to exclude the reference item itself.
	ExcludeId core.ID
}

// VectorStore provides nearest-neighbor search over stored embeddings with
// metadata filters. Implementations must be thread-safe and support
// concurrent access.
type VectorStore interface {
	// Query finds the items most similar to the given vector within one
	// user's scope. Returns up to limit matches ordered by similarity
	// (highest first); ties are broken by item ID for deterministic order.
	Query(ctx context.Context, vector []float32, userID core.ID, filters *Filters, limit int) ([]*core.VectorMatch, error)

	// UpsertEmbedding stores or overwrites the embedding for an entity.
	// Overwriting with an identical record is a benign no-op.
	UpsertEmbedding(ctx context.Context, userID core.ID, record *core.EmbeddingRecord) error

	// GetEmbedding retrieves the stored embedding for an entity.
	// Returns ErrNotFound if no embedding has been stored.
	GetEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) (*core.EmbeddingRecord, error)

	// DeleteEmbedding removes the stored embedding for an entity.
	// Deleting a missing embedding is not an error.
	DeleteEmbedding(ctx context.Context, userID core.ID, entityType core.EntityType, entityID core.ID) error

	// Close closes the store and releases resources.
	Close() error
}

// TextIndex provides lexical relevance search over stored records.
// Relevance scores are in [0,1].
type TextIndex interface {
	// Query returns items whose text matches the query, ordered by
	// relevance (highest first), up to limit results.
	Query(ctx context.Context, text string, userID core.ID, filters *Filters, limit int) ([]*core.TextMatch, error)
}

// EmbeddingStore is the durable, content-addressed backing for the embedding
// cache. At most one record exists per (entity type, content hash); a write
// race on the same hash is benign last-write-wins.
type EmbeddingStore interface {
	// GetCached retrieves a cached embedding by content hash.
	// Returns ErrNotFound on a miss. Staleness is the caller's policy.
	GetCached(ctx context.Context, entityType core.EntityType, contentHash string) (*core.EmbeddingRecord, error)

	// PutCached stores a cached embedding, overwriting any prior record
	// for the same (entity type, content hash).
	PutCached(ctx context.Context, record *core.EmbeddingRecord) error
}

// ReceiptRepository provides operations for managing receipts.
// All reads and writes are scoped to a single user.
type ReceiptRepository interface {
	// AddReceipts adds one or more receipts to storage.
	// For receipts with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the receipts with generated IDs and timestamps populated.
	AddReceipts(ctx context.Context, receipts ...*core.Receipt) ([]*core.Receipt, error)

	// UpdateReceipts updates existing receipts.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any receipt doesn't exist.
	UpdateReceipts(ctx context.Context, receipts ...*core.Receipt) ([]*core.Receipt, error)

	// DeleteReceipts removes receipts by their IDs.
	// Returns ErrNotFound if any receipt doesn't exist.
	DeleteReceipts(ctx context.Context, userID core.ID, ids ...core.ID) error

	// GetReceipt retrieves a single receipt by ID.
	// Returns ErrNotFound if the receipt doesn't exist.
	GetReceipt(ctx context.Context, userID core.ID, id core.ID) (*core.Receipt, error)

	// GetReceipts retrieves multiple receipts by their IDs.
	// Returns only the receipts that exist (no error for missing receipts).
	GetReceipts(ctx context.Context, userID core.ID, ids ...core.ID) ([]*core.Receipt, error)

	// GetReceiptsByDateRange retrieves receipts purchased within a time range.
	// Returns receipts where start <= PurchasedAt < end, ordered by purchase time.
	GetReceiptsByDateRange(ctx context.Context, userID core.ID, start, end time.Time) ([]*core.Receipt, error)

	// Close closes the repository and releases resources.
	Close() error
}

// WarrantyRepository provides operations for managing warranties.
// All reads and writes are scoped to a single user.
type WarrantyRepository interface {
	// AddWarranties adds one or more warranties to storage.
	// For warranties with ID=0, generates new IDs from sequence.
	AddWarranties(ctx context.Context, warranties ...*core.Warranty) ([]*core.Warranty, error)

	// UpdateWarranties updates existing warranties.
	// Returns ErrNotFound if any warranty doesn't exist.
	UpdateWarranties(ctx context.Context, warranties ...*core.Warranty) ([]*core.Warranty, error)

	// DeleteWarranties removes warranties by their IDs.
	// Returns ErrNotFound if any warranty doesn't exist.
	DeleteWarranties(ctx context.Context, userID core.ID, ids ...core.ID) error

	// GetWarranty retrieves a single warranty by ID.
	// Returns ErrNotFound if the warranty doesn't exist.
	GetWarranty(ctx context.Context, userID core.ID, id core.ID) (*core.Warranty, error)

	// GetWarranties retrieves multiple warranties by their IDs.
	// Returns only the warranties that exist (no error for missing warranties).
	GetWarranties(ctx context.Context, userID core.ID, ids ...core.ID) ([]*core.Warranty, error)

	// GetExpiringWarranties retrieves warranties expiring before the given
	// instant, ordered by expiry time.
	GetExpiringWarranties(ctx context.Context, userID core.ID, before time.Time) ([]*core.Warranty, error)

	// Close closes the repository and releases resources.
	Close() error
}
