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

package badger

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ledgerfind/core"
	"github.com/poiesic/ledgerfind/storage"
)

// Stop words to filter out when tokenizing query and document text
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// TextIndexStore implements storage.TextIndex as a tokenized scan over one
// user's stored records. Relevance is the fraction of query tokens found in
// the record's searchable text.
type TextIndexStore struct {
	backend *Backend
}

var _ storage.TextIndex = (*TextIndexStore)(nil)

// NewTextIndexStore creates a new TextIndexStore.
func NewTextIndexStore(backend *Backend) *TextIndexStore {
	return &TextIndexStore{backend: backend}
}

// Query returns items whose text matches the query, ordered by relevance
// descending, then entity ID ascending.
func (s *TextIndexStore) Query(ctx context.Context, text string, userID core.ID, filters *storage.Filters, limit int) ([]*core.TextMatch, error) {
	queryWords := tokenizeAndFilter(text)
	if len(queryWords) == 0 {
		return nil, nil
	}

	wantReceipts := filters == nil || filters.EntityType == "" || filters.EntityType == core.EntityTypeReceipt
	wantWarranties := filters == nil || filters.EntityType == "" || filters.EntityType == core.EntityTypeWarranty

	var matches []*core.TextMatch
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if wantReceipts {
			if err := s.scanReceipts(tx, userID, queryWords, filters, &matches); err != nil {
				return err
			}
		}
		if wantWarranties {
			if err := s.scanWarranties(tx, userID, queryWords, filters, &matches); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *core.TextMatch) int {
		if a.Relevance != b.Relevance {
			if a.Relevance > b.Relevance {
				return -1
			}
			return 1
		}
		if a.EntityId < b.EntityId {
			return -1
		}
		if a.EntityId > b.EntityId {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *TextIndexStore) scanReceipts(tx *badger.Txn, userID core.ID, queryWords []string, filters *storage.Filters, matches *[]*core.TextMatch) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(receiptPrefix + ":" + strconv.FormatUint(uint64(userID), 10) + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var receipt *core.Receipt
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			receipt, unmarshalErr = storage.UnmarshalReceipt(val)
			return unmarshalErr
		})
		if err != nil {
			return err
		}
		if receipt == nil {
			continue
		}
		if filters != nil {
			if filters.ExcludeId != 0 && receipt.Id == filters.ExcludeId {
				continue
			}
			if !filters.MatchesReceipt(receipt) {
				continue
			}
		}

		relevance := scoreTokenOverlap(receiptSearchText(receipt), queryWords)
		if relevance > 0 {
			*matches = append(*matches, &core.TextMatch{
				EntityType: core.EntityTypeReceipt,
				EntityId:   receipt.Id,
				Relevance:  relevance,
			})
		}
	}
	return nil
}

func (s *TextIndexStore) scanWarranties(tx *badger.Txn, userID core.ID, queryWords []string, filters *storage.Filters, matches *[]*core.TextMatch) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(warrantyPrefix + ":" + strconv.FormatUint(uint64(userID), 10) + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var warranty *core.Warranty
		err := iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			warranty, unmarshalErr = storage.UnmarshalWarranty(val)
			return unmarshalErr
		})
		if err != nil {
			return err
		}
		if warranty == nil {
			continue
		}
		if filters != nil {
			if filters.ExcludeId != 0 && warranty.Id == filters.ExcludeId {
				continue
			}
			if !filters.MatchesWarranty(warranty) {
				continue
			}
		}

		relevance := scoreTokenOverlap(warrantySearchText(warranty), queryWords)
		if relevance > 0 {
			*matches = append(*matches, &core.TextMatch{
				EntityType: core.EntityTypeWarranty,
				EntityId:   warranty.Id,
				Relevance:  relevance,
			})
		}
	}
	return nil
}

// receiptSearchText concatenates a receipt's lexically searchable fields.
func receiptSearchText(receipt *core.Receipt) string {
	parts := []string{
		receipt.Merchant,
		receipt.Category,
		receipt.OCRText,
		receipt.Notes,
		receipt.Location,
	}
	for _, item := range receipt.LineItems {
		parts = append(parts, item.Name)
	}
	parts = append(parts, receipt.Tags...)
	return strings.Join(parts, " ")
}

// warrantySearchText concatenates a warranty's lexically searchable fields.
func warrantySearchText(warranty *core.Warranty) string {
	return strings.Join([]string{
		warranty.Product,
		warranty.Brand,
		warranty.Category,
		warranty.Retailer,
		warranty.Coverage,
		warranty.Notes,
	}, " ")
}

// scoreTokenOverlap returns the fraction of query tokens present in the
// document, in [0,1].
func scoreTokenOverlap(document string, queryWords []string) float64 {
	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	hits := 0
	for _, qWord := range queryWords {
		if docWordSet[qWord] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}$"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}
