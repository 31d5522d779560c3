package search

import "errors"

var (
	// ErrEmptyQuery indicates an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidTopK indicates a non-positive result count.
	ErrInvalidTopK = errors.New("topK must be greater than 0")

	// ErrVectorStoreRequired indicates a nil vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrRetrieverRequired indicates a nil retriever.
	ErrRetrieverRequired = errors.New("retriever is required")
)
