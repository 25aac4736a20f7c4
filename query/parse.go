package query

import (
	"strings"
	"time"

	"github.com/poiesic/ledgerfind/core"
)

// Parse runs the full understanding pass over free query text: intent
// classification plus entity extraction against vocab (nil means
// DefaultVocabulary), with relative dates resolved against now. Parsing is
// pure and deterministic; no model call is involved.
func Parse(text string, now time.Time, vocab *Vocabulary) *core.Query {
	return &core.Query{
		RawText:        text,
		NormalizedText: strings.ToLower(strings.TrimSpace(text)),
		Intent:         Classify(text),
		Entities:       Extract(text, now, vocab),
	}
}
