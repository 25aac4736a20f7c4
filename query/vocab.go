package query

import "strings"

// Vocabulary supplies the domain wording used during entity extraction.
// Callers with their own category taxonomy or a known merchant list plug
// it in here; extraction itself stays a pure pattern pass.
type Vocabulary struct {
	// Categories maps query wording to the canonical category names used
	// on stored receipts and warranties. Synonyms collapse onto one
	// canonical value so a filter extracted from "grocery runs" matches
	// receipts categorized "groceries".
	Categories map[string]string

	// Merchants lists known merchant names, matched case-insensitively as
	// substrings. A hit here wins over the capitalization heuristic.
	Merchants []string
}

// DefaultVocabulary covers common consumer spending categories.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Categories: map[string]string{
			"groceries":     "groceries",
			"grocery":       "groceries",
			"supermarket":   "groceries",
			"dining":        "dining",
			"restaurant":    "dining",
			"restaurants":   "dining",
			"takeout":       "dining",
			"electronics":   "electronics",
			"gadgets":       "electronics",
			"travel":        "travel",
			"flights":       "travel",
			"hotels":        "travel",
			"clothing":      "clothing",
			"clothes":       "clothing",
			"apparel":       "clothing",
			"utilities":     "utilities",
			"entertainment": "entertainment",
			"health":        "health",
			"pharmacy":      "health",
			"medicine":      "health",
			"fuel":          "fuel",
			"gas":           "fuel",
			"gasoline":      "fuel",
			"subscriptions": "subscriptions",
			"subscription":  "subscriptions",
		},
	}
}

// matchCategory returns the canonical category triggered by any word in the
// text, or "" when none matches. The first triggering word in reading
// order wins.
func (v *Vocabulary) matchCategory(lowered string) string {
	for _, word := range strings.Fields(lowered) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if canonical, ok := v.Categories[word]; ok {
			return canonical
		}
	}
	return ""
}

// matchMerchant returns the first known merchant mentioned in the text,
// or "" when the vocabulary names none of them.
func (v *Vocabulary) matchMerchant(lowered string) string {
	for _, merchant := range v.Merchants {
		if strings.Contains(lowered, strings.ToLower(merchant)) {
			return merchant
		}
	}
	return ""
}
