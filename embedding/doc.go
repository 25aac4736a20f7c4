// Package embedding turns receipts, warranties, and free queries into
// vectors. The Generator fronts the provider with a content-addressed
// cache: an entity's canonical text is hashed, and a fresh cached vector
// short-circuits the provider call entirely. Batch embedding runs on a
// worker pool in throttle-friendly chunks.
package embedding
