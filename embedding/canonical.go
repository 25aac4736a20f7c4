package embedding

import (
	"fmt"
	"strings"

	"github.com/poiesic/ledgerfind/core"
)

// CanonicalText builds the deterministic text representation an entity is
// embedded from. Field order and formatting are fixed: any change here
// changes content hashes and silently invalidates every cached embedding,
// so treat the format as frozen.
func CanonicalText(entity core.Entity) (string, error) {
	switch item := entity.(type) {
	case *core.Receipt:
		return canonicalReceiptText(item), nil
	case *core.Warranty:
		return canonicalWarrantyText(item), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedEntity, entity)
	}
}

func canonicalReceiptText(receipt *core.Receipt) string {
	var sb strings.Builder

	sb.WriteString("receipt")
	writeField(&sb, "merchant", receipt.Merchant)
	if receipt.Amount > 0 {
		currency := receipt.Currency
		if currency == "" {
			currency = "USD"
		}
		writeField(&sb, "amount", fmt.Sprintf("%.2f %s", receipt.Amount, currency))
	}
	writeField(&sb, "category", receipt.Category)
	if !receipt.PurchasedAt.IsZero() {
		writeField(&sb, "date", receipt.PurchasedAt.UTC().Format("2006-01-02"))
	}
	if len(receipt.LineItems) > 0 {
		names := make([]string, len(receipt.LineItems))
		for i, item := range receipt.LineItems {
			names[i] = item.Name
		}
		writeField(&sb, "items", strings.Join(names, ", "))
	}
	if len(receipt.Tags) > 0 {
		writeField(&sb, "tags", strings.Join(receipt.Tags, ", "))
	}
	writeField(&sb, "location", receipt.Location)
	writeField(&sb, "notes", receipt.Notes)
	writeField(&sb, "text", receipt.OCRText)

	return sb.String()
}

func canonicalWarrantyText(warranty *core.Warranty) string {
	var sb strings.Builder

	sb.WriteString("warranty")
	writeField(&sb, "product", warranty.Product)
	writeField(&sb, "brand", warranty.Brand)
	writeField(&sb, "category", warranty.Category)
	writeField(&sb, "retailer", warranty.Retailer)
	if !warranty.PurchasedAt.IsZero() {
		writeField(&sb, "purchased", warranty.PurchasedAt.UTC().Format("2006-01-02"))
	}
	if !warranty.ExpiresAt.IsZero() {
		writeField(&sb, "expires", warranty.ExpiresAt.UTC().Format("2006-01-02"))
	}
	writeField(&sb, "coverage", warranty.Coverage)
	writeField(&sb, "notes", warranty.Notes)

	return sb.String()
}

// writeField appends "label: value" on its own line, skipping empty values
// so absent fields never disturb the hash of the fields that are present.
func writeField(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
}
