// Package badger implements the storage interfaces on BadgerDB.
//
// One Backend owns the database handle; repositories and stores share it.
// Receipts and warranties live under per-user composite keys with BigEndian
// date indexes for range scans. Embeddings are stored per user for
// similarity queries and separately under content-hash keys for the
// embedding cache. Vector queries are brute-force prefix scans, which is
// the right trade for single-user collections of this size.
package badger
