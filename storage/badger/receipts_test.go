package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

const testUserID = core.ID(42)

func TestReceiptBasics(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	receipt := &core.Receipt{
		UserId:      testUserID,
		Merchant:    "Whole Foods",
		Amount:      54.20,
		Currency:    "USD",
		Category:    "groceries",
		PurchasedAt: time.Now().UTC().Add(-1 * time.Hour),
	}

	added, err := stores.Receipts.AddReceipts(ctx, receipt)
	if err != nil {
		t.Fatalf("Failed to add receipt: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 receipt, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := stores.Receipts.GetReceipt(ctx, testUserID, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get receipt: %v", err)
	}
	if retrieved.Merchant != "Whole Foods" {
		t.Fatalf("Expected 'Whole Foods', got '%s'", retrieved.Merchant)
	}
	if retrieved.Amount != 54.20 {
		t.Fatalf("Expected amount 54.20, got %f", retrieved.Amount)
	}
}

func TestReceiptUserScoping(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	receipt := &core.Receipt{
		UserId:      testUserID,
		Merchant:    "Target",
		Amount:      19.99,
		PurchasedAt: time.Now().UTC().Add(-1 * time.Hour),
	}
	added, err := stores.Receipts.AddReceipts(ctx, receipt)
	if err != nil {
		t.Fatalf("Failed to add receipt: %v", err)
	}

	// Another user must not see it
	_, err = stores.Receipts.GetReceipt(ctx, core.ID(99), added[0].Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for other user, got %v", err)
	}
}

func TestReceiptUpdate(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	receipt := &core.Receipt{
		UserId:      testUserID,
		Merchant:    "Costco",
		Amount:      120.00,
		PurchasedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	added, err := stores.Receipts.AddReceipts(ctx, receipt)
	if err != nil {
		t.Fatalf("Failed to add receipt: %v", err)
	}

	added[0].Amount = 115.50
	added[0].PurchasedAt = time.Now().UTC().Add(-24 * time.Hour)
	if _, err := stores.Receipts.UpdateReceipts(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update receipt: %v", err)
	}

	retrieved, err := stores.Receipts.GetReceipt(ctx, testUserID, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get receipt: %v", err)
	}
	if retrieved.Amount != 115.50 {
		t.Fatalf("Expected amount 115.50, got %f", retrieved.Amount)
	}

	// Updating a record that never existed reports not found
	missing := &core.Receipt{
		Id:          9999,
		UserId:      testUserID,
		Merchant:    "Nowhere",
		PurchasedAt: time.Now().UTC(),
	}
	_, err = stores.Receipts.UpdateReceipts(ctx, missing)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReceiptDelete(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	receipt := &core.Receipt{
		UserId:      testUserID,
		Merchant:    "Best Buy",
		Amount:      899.99,
		PurchasedAt: time.Now().UTC().Add(-1 * time.Hour),
	}
	added, err := stores.Receipts.AddReceipts(ctx, receipt)
	if err != nil {
		t.Fatalf("Failed to add receipt: %v", err)
	}

	if err := stores.Receipts.DeleteReceipts(ctx, testUserID, added[0].Id); err != nil {
		t.Fatalf("Failed to delete receipt: %v", err)
	}

	_, err = stores.Receipts.GetReceipt(ctx, testUserID, added[0].Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	// Date range query must no longer surface it
	results, err := stores.Receipts.GetReceiptsByDateRange(ctx, testUserID,
		time.Now().UTC().Add(-2*time.Hour), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to query date range: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected 0 receipts after delete, got %d", len(results))
	}
}

func TestReceiptDateRange(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	now := time.Now().UTC()
	receipts := []*core.Receipt{
		{UserId: testUserID, Merchant: "Shop A", Amount: 10, PurchasedAt: now.Add(-72 * time.Hour)},
		{UserId: testUserID, Merchant: "Shop B", Amount: 20, PurchasedAt: now.Add(-48 * time.Hour)},
		{UserId: testUserID, Merchant: "Shop C", Amount: 30, PurchasedAt: now.Add(-24 * time.Hour)},
	}
	if _, err := stores.Receipts.AddReceipts(ctx, receipts...); err != nil {
		t.Fatalf("Failed to add receipts: %v", err)
	}

	// Records for another user must not leak into the range
	other := &core.Receipt{UserId: core.ID(7), Merchant: "Other Shop", Amount: 5, PurchasedAt: now.Add(-36 * time.Hour)}
	if _, err := stores.Receipts.AddReceipts(ctx, other); err != nil {
		t.Fatalf("Failed to add other user's receipt: %v", err)
	}

	results, err := stores.Receipts.GetReceiptsByDateRange(ctx, testUserID,
		now.Add(-60*time.Hour), now)
	if err != nil {
		t.Fatalf("Failed to get receipts by date range: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 receipts, got %d", len(results))
	}
	// Ascending by purchase time
	if results[0].Merchant != "Shop B" || results[1].Merchant != "Shop C" {
		t.Fatalf("Expected Shop B then Shop C, got %s then %s", results[0].Merchant, results[1].Merchant)
	}
}

func TestReceiptValidationOnAdd(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	receipt := &core.Receipt{
		UserId:      testUserID,
		Merchant:    "Shop",
		Amount:      -5.00,
		PurchasedAt: time.Now().UTC(),
	}
	_, err = stores.Receipts.AddReceipts(ctx, receipt)
	if !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("Expected ErrNegativeAmount, got %v", err)
	}
}
