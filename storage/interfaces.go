package storage

import (
	"context"

	"github.com/poiesic/resumatch/core"
)

// IDFilter is an externally supplied set of document ids narrowing the
// search universe. A nil filter means the full corpus.
type IDFilter map[string]struct{}

// NewIDFilter builds a filter from a list of document ids. An empty list
// yields a nil filter (no narrowing).
func NewIDFilter(ids []string) IDFilter {
	if len(ids) == 0 {
		return nil
	}
	f := make(IDFilter, len(ids))
	for _, id := range ids {
		f[core.CanonicalID(id)] = struct{}{}
	}
	return f
}

// Contains reports whether id passes the filter. A nil filter passes
// everything.
func (f IDFilter) Contains(id string) bool {
	if f == nil {
		return true
	}
	_, ok := f[id]
	return ok
}

// CollectionManifest declares a collection's schema: its fixed vector
// dimensionality and the payload fields exposed for server-side filtering.
type CollectionManifest struct {
	Name          string
	VectorDim     int
	KeywordFields []string // exact-match filterable fields
	TextFields    []string // full-text fields
}

// CollectionInfo is a point-in-time summary of one collection.
type CollectionInfo struct {
	Name      string
	VectorDim int
	Points    int
	Documents int
}

// ScoredPoint is one nearest-neighbor hit: a stored chunk and its cosine
// similarity to the query vector.
type ScoredPoint struct {
	Chunk core.Chunk
	Score float64
}

// VectorStore is the vector index contract: one collection per section.
// Implementations must be safe for concurrent use by multiple in-flight
// search and write calls.
type VectorStore interface {
	// EnsureCollections idempotently creates the per-section collections
	// with the given vector dimensionality. Re-running on existing
	// collections is a no-op plus a schema re-assert; a dimensionality
	// conflict with an existing collection is an error.
	EnsureCollections(ctx context.Context, sections []core.Section, vectorDim int) error

	// Manifest returns the stored manifest for a section's collection.
	// Returns ErrCollectionNotFound if the collection was never created.
	Manifest(ctx context.Context, section core.Section) (*CollectionManifest, error)

	// WriteBatch writes one batch of points to a section's collection.
	// Points with a vector dimensionality different from the collection's
	// are rejected with a DimensionError; the caller decides whether to
	// drop them or abort.
	WriteBatch(ctx context.Context, section core.Section, points []core.Chunk) error

	// Search returns up to limit points nearest to vector, restricted to
	// filter when non-nil. No score threshold is applied: low-scoring
	// results are valid and are returned. A missing collection yields an
	// empty result, not an error.
	Search(ctx context.Context, section core.Section, vector []float32, limit int, filter IDFilter) ([]ScoredPoint, error)

	// DocumentChunks returns every stored chunk of one document within
	// one section's collection.
	DocumentChunks(ctx context.Context, section core.Section, documentID string) ([]core.Chunk, error)

	// DeleteDocument removes every point of one document within one
	// section's collection, returning the number of removed points.
	DeleteDocument(ctx context.Context, section core.Section, documentID string) (int, error)

	// CollectionInfo summarizes one collection.
	CollectionInfo(ctx context.Context, section core.Section) (*CollectionInfo, error)
}

// DocumentStore is the minimal document lookup contract: store snapshots,
// fetch by id, and resolve role labels to candidate id sets.
type DocumentStore interface {
	// PutDocuments stores document snapshots, replacing prior versions.
	PutDocuments(ctx context.Context, docs ...*core.Document) error

	// GetDocument fetches one document by canonical id.
	// Returns ErrNotFound when absent.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments fetches documents by canonical id, skipping absent ids.
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// IDsByRoles returns the ids of documents whose primary role matches
	// any of the given role labels, treating slash spacing variants
	// ("a/b", "a / b", "a/ b", "a /b") as equivalent.
	IDsByRoles(ctx context.Context, roles []string) ([]string, error)
}
