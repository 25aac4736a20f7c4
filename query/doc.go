// Package query turns free text like "receipts over $100 from last month"
// into an intent and structured filters. Classification is an ordered rule
// table; extraction is vocabulary and pattern matching with relative dates
// resolved against a caller-supplied clock. Everything here is pure: same
// text and same instant, same result.
package query
