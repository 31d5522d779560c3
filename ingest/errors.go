package ingest

import "errors"

var (
	// ErrDocumentStoreRequired indicates a nil document store.
	ErrDocumentStoreRequired = errors.New("document store is required")

	// ErrIndexClientRequired indicates a nil index client.
	ErrIndexClientRequired = errors.New("index client is required")

	// ErrEmbedderRequired indicates a nil embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrSplitterRequired indicates a nil splitter.
	ErrSplitterRequired = errors.New("splitter is required")
)
