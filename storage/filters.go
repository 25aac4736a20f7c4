package storage

import (
	"strings"

	"github.com/poiesic/ledgerfind/core"
)

// MatchesReceipt checks a receipt against metadata filters. String filters
// match case-insensitively; the product filter searches line items and
// OCR text.
func (f *Filters) MatchesReceipt(receipt *core.Receipt) bool {
	if f.Category != "" && !strings.EqualFold(receipt.Category, f.Category) {
		return false
	}
	if f.Merchant != "" && !strings.EqualFold(receipt.Merchant, f.Merchant) {
		return false
	}
	if f.Product != "" && !receiptMentionsProduct(receipt, f.Product) {
		return false
	}
	if f.DateRange != nil && !f.DateRange.Contains(receipt.PurchasedAt) {
		return false
	}
	if f.AmountRange != nil && !f.AmountRange.Contains(receipt.Amount) {
		return false
	}
	return true
}

// MatchesWarranty checks a warranty against metadata filters. The merchant
// filter matches the retailer. Warranties carry no amount, so an amount
// filter excludes them.
func (f *Filters) MatchesWarranty(warranty *core.Warranty) bool {
	if f.Category != "" && !strings.EqualFold(warranty.Category, f.Category) {
		return false
	}
	if f.Merchant != "" && !strings.EqualFold(warranty.Retailer, f.Merchant) {
		return false
	}
	if f.Product != "" && !strings.Contains(strings.ToLower(warranty.Product), strings.ToLower(f.Product)) {
		return false
	}
	if f.DateRange != nil && !f.DateRange.Contains(warranty.PurchasedAt) {
		return false
	}
	if f.AmountRange != nil {
		return false
	}
	return true
}

// receiptMentionsProduct reports whether a product name appears among the
// receipt's line items or OCR text.
func receiptMentionsProduct(receipt *core.Receipt, product string) bool {
	needle := strings.ToLower(product)
	for _, item := range receipt.LineItems {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(receipt.OCRText), needle)
}
