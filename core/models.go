package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent computes the content hash used as the embedding cache key.
// Identical canonical text always produces identical hashes.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// EntityType identifies the domain an item belongs to.
type EntityType string

const (
	// EntityTypeReceipt is a purchase receipt.
	EntityTypeReceipt EntityType = "receipt"
	// EntityTypeWarranty is a product warranty.
	EntityTypeWarranty EntityType = "warranty"
)

// Entity is implemented by domain items that can be embedded and indexed.
type Entity interface {
	// EntityID returns the item's identifier.
	EntityID() ID
	// OwnerID returns the identifier of the user the item belongs to.
	OwnerID() ID
	// Type returns the item's entity type.
	Type() EntityType
}

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	Name     string
	Quantity int
	Price    float64
}

// Receipt represents a single purchase record, typically sourced from OCR
// text extraction. It may be enriched with an embedding during processing.
type Receipt struct {
	Id          ID
	UserId      ID
	Merchant    string
	Amount      float64
	Currency    string
	Category    string
	PurchasedAt time.Time
	OCRText     string // Raw text produced by OCR extraction
	LineItems   []LineItem
	Tags        []string
	Notes       string
	Location    string
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

func (r *Receipt) EntityID() ID     { return r.Id }
func (r *Receipt) OwnerID() ID      { return r.UserId }
func (r *Receipt) Type() EntityType { return EntityTypeReceipt }

// Warranty represents a product warranty record.
type Warranty struct {
	Id          ID
	UserId      ID
	Product     string
	Brand       string
	Category    string
	Retailer    string
	PurchasedAt time.Time
	ExpiresAt   time.Time
	Coverage    string
	Notes       string
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

func (w *Warranty) EntityID() ID     { return w.Id }
func (w *Warranty) OwnerID() ID      { return w.UserId }
func (w *Warranty) Type() EntityType { return EntityTypeWarranty }

// EmbeddingRecord is one cached embedding vector, keyed by the content hash
// of the canonical text it was generated from. Records are never mutated;
// a stale record is overwritten by a freshly generated one.
type EmbeddingRecord struct {
	ContentHash string
	Vector      []float32
	ModelId     string
	EntityType  EntityType
	EntityId    ID
	CreatedAt   time.Time
}

// Intent is the purpose category assigned to a free-text query.
type Intent string

const (
	IntentSearch          Intent = "search"
	IntentAnalytics       Intent = "analytics"
	IntentDuplicateCheck  Intent = "duplicate_check"
	IntentWarrantyLookup  Intent = "warranty_lookup"
	IntentSpendingSummary Intent = "spending_summary"
	IntentUnknown         Intent = "unknown"
)

// DateRange is an absolute time window. Start is inclusive, End exclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r *DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// AmountRange is a monetary bound. A nil Min or Max means the bound is open.
type AmountRange struct {
	Min *float64
	Max *float64
}

// Contains reports whether amount falls inside the range.
func (r *AmountRange) Contains(amount float64) bool {
	if r.Min != nil && amount < *r.Min {
		return false
	}
	if r.Max != nil && amount > *r.Max {
		return false
	}
	return true
}

// EntityMap holds structured values extracted from a query. Absent slots are
// zero-valued; extraction fills only what it recognizes.
type EntityMap struct {
	DateRange   *DateRange
	AmountRange *AmountRange
	Category    string
	Merchant    string
	Product     string
}

// Empty reports whether no slot was extracted.
func (m EntityMap) Empty() bool {
	return m.DateRange == nil && m.AmountRange == nil &&
		m.Category == "" && m.Merchant == "" && m.Product == ""
}

// Query is an understood user query: the raw text plus the intent and
// entities derived from it.
type Query struct {
	RawText        string
	NormalizedText string
	Intent         Intent
	Entities       EntityMap
}

// VectorMatch is one nearest-neighbor hit from a vector store query.
type VectorMatch struct {
	EntityType EntityType
	EntityId   ID
	Similarity float64
}

// TextMatch is one hit from a lexical text query.
type TextMatch struct {
	EntityType EntityType
	EntityId   ID
	Relevance  float64
}

// SearchResult is a ranked search hit. CombinedScore is a deterministic
// function of VectorScore, TextScore and the active weights; for pure vector
// search TextScore is zero and CombinedScore equals VectorScore.
type SearchResult struct {
	ItemId        ID
	ItemType      EntityType
	VectorScore   float64
	TextScore     float64
	CombinedScore float64
	Receipt       *Receipt
	Warranty      *Warranty
}

// DuplicateCandidate is a near-duplicate of a reference item.
// Similarity is cosine similarity rescaled to [0,1]; ItemId never equals
// ReferenceId.
type DuplicateCandidate struct {
	ItemId      ID
	ReferenceId ID
	Similarity  float64
}

// Health reports engine readiness for callers such as an HTTP layer.
type Health struct {
	Status          string
	ModelId         string
	VectorDimension int
}
