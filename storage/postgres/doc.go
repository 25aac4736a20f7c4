// Package postgres implements the vector store and embedding cache on
// Postgres with the pgvector extension. It is the backend of choice when
// collections outgrow the embedded BadgerDB scan or when several processes
// need to share one index. Schema setup is idempotent and runs at Open.
package postgres
