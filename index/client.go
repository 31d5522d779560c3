// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package index is the write-side client of the vector collections:
// idempotent bootstrap, batched retried upserts with partial-failure
// accounting, and per-document deletion across sections.
package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
)

const (
	// DefaultBatchSize is the default number of points per upsert batch.
	DefaultBatchSize = 100
	// DefaultMaxAttempts is the default attempt count per batch.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the default base delay between batch retries.
	DefaultBaseDelay = 500 * time.Millisecond
)

// batchWriter is the narrow write surface the client retries against.
type batchWriter interface {
	WriteBatch(ctx context.Context, section core.Section, points []core.Chunk) error
}

// Client wraps a VectorStore with batching and retry for writes. A failed
// batch is accounted in UpsertStats, not surfaced as an error: ingestion
// of the remaining batches continues.
type Client struct {
	store       storage.VectorStore
	writer      batchWriter
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBatchSize sets the number of points per upsert batch.
func WithBatchSize(size int) Option {
	return func(c *Client) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}
		c.batchSize = size
		return nil
	}
}

// WithRetry sets the per-batch retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = maxAttempts
		c.baseDelay = baseDelay
		return nil
	}
}

// withWriter substitutes the write surface. Used by tests to inject
// failures without faulting the backend.
func withWriter(w batchWriter) Option {
	return func(c *Client) error {
		c.writer = w
		return nil
	}
}

// NewClient creates a Client over a VectorStore.
func NewClient(store storage.VectorStore, opts ...Option) (*Client, error) {
	c := &Client{
		store:       store,
		writer:      store,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// EnsureCollections delegates to the store.
func (c *Client) EnsureCollections(ctx context.Context, vectorDim int) error {
	return c.store.EnsureCollections(ctx, core.Sections, vectorDim)
}

// Upsert writes chunks to a section's collection in batches. Invalid
// chunks and chunks whose vector disagrees with the collection's
// dimensionality are dropped and counted failed, point by point; a
// batch that exhausts its retries is counted failed and the remaining
// batches proceed. The returned error is non-nil only for
// whole-operation failures such as context cancellation or a missing
// collection.
func (c *Client) Upsert(ctx context.Context, section core.Section, chunks []core.Chunk) (core.UpsertStats, error) {
	var stats core.UpsertStats

	manifest, err := c.store.Manifest(ctx, section)
	if err != nil {
		return stats, err
	}

	valid := make([]core.Chunk, 0, len(chunks))
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			c.logger.Warn("dropping invalid chunk",
				"section", string(section), "chunk_id", chunks[i].ID, "error", err)
			stats.Failed++
			continue
		}
		// Dimension mismatches are deterministic: screened here per point
		// instead of sinking the whole batch into pointless retries.
		if len(chunks[i].Vector) != manifest.VectorDim {
			c.logger.Warn("dropping chunk with mismatched vector",
				"section", string(section), "chunk_id", chunks[i].ID,
				"error", &storage.DimensionError{
					Collection: manifest.Name,
					Expected:   manifest.VectorDim,
					Got:        len(chunks[i].Vector),
				})
			stats.Failed++
			continue
		}
		valid = append(valid, chunks[i])
	}

	for start := 0; start < len(valid); start += c.batchSize {
		end := start + c.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		err := RetryWithBackoff(ctx, func() error {
			return c.writer.WriteBatch(ctx, section, batch)
		}, c.maxAttempts, c.baseDelay)
		if err != nil {
			if ctx.Err() != nil {
				stats.Failed += len(valid) - start
				return stats, ctx.Err()
			}
			c.logger.Error("upsert batch failed after retries",
				"section", string(section), "batch_size", len(batch), "error", err)
			stats.Failed += len(batch)
			continue
		}
		stats.Succeeded += len(batch)
	}

	if stats.Failed > 0 {
		c.logger.Warn("upsert finished with failures",
			"section", string(section), "succeeded", stats.Succeeded, "failed", stats.Failed)
	}
	return stats, nil
}

// DeleteDocument removes a document's points from every section's
// collection, returning the total number removed. Run before re-inserting
// a document so chunks past the new chunk count do not linger.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	total := 0
	for _, section := range core.Sections {
		n, err := c.store.DeleteDocument(ctx, section, documentID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
