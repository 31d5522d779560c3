package index

import "errors"

var (
	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidBatchSize indicates a non-positive upsert batch size.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)
