// Package refresh regenerates stale embeddings in bulk.
//
// A stored vector goes stale when the embedding model changes or the record
// ages past the configured maximum. Refresher walks a user's receipts and
// warranties in batches, re-embeds only the stale subset with retry and
// exponential backoff, and reports progress as it goes.
package refresh
