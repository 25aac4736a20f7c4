// Package search orchestrates retrieval over a user's financial records.
//
// The Searcher ties query understanding, embedding generation, vector search,
// and lexical search together. Pure semantic search ranks by vector
// similarity alone; hybrid search blends both modalities through
// min-max-normalized weighted scoring. Duplicate detection reuses the same
// vector store at a high similarity threshold.
package search
