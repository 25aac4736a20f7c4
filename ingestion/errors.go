package ingestion

import "errors"

var (
	// ErrReceiptRepositoryRequired is returned when a receipt repository is not provided.
	ErrReceiptRepositoryRequired = errors.New("receipt repository required")

	// ErrWarrantyRepositoryRequired is returned when a warranty repository is not provided.
	ErrWarrantyRepositoryRequired = errors.New("warranty repository required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrGeneratorRequired is returned when an embedding generator is not provided.
	ErrGeneratorRequired = errors.New("embedding generator required")
)
