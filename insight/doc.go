// Package insight computes spending insights over a user's receipts:
// aggregate patterns, statistical anomalies, and half-window trends.
// Retrieval is bounded by a trailing timeframe; a semantically loaded query
// additionally narrows the set through one query embedding. All statistics
// are deterministic functions of the retrieved receipt set.
package insight
