// Package ingestion provides pipeline orchestration for storing and
// indexing financial records.
//
// The Pipeline type manages the ingestion workflow for receipts and
// warranties, including:
//   - Adding records to storage
//   - Generating embeddings asynchronously
//   - Upserting vectors into the vector store
//
// Indexing runs concurrently on a worker pool. Errors during async
// processing are logged but do not fail the ingestion operation.
package ingestion
