// Package mock provides deterministic test doubles for the ai package.
//
// The mock embedder produces stable FNV-seeded unit vectors so tests get
// repeatable similarity scores without a network dependency, and supports
// behavior injection through function fields.
package mock
