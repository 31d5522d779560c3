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


package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
)

// Payload fields exposed for filtering on every collection.
var (
	defaultKeywordFields = []string{"document_id", "category", "primary_role", "keywords"}
	defaultTextFields    = []string{"text"}
)

// VectorStore implements storage.VectorStore for BadgerDB. Vectors are
// expected to be unit-normalized at write time, so cosine similarity
// reduces to a dot product at query time.
type VectorStore struct {
	backend *Backend
	logger  *slog.Logger

	mu        sync.RWMutex
	manifests map[core.Section]*storage.CollectionManifest
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a VectorStore over an open backend.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{
		backend:   backend,
		logger:    slog.Default(),
		manifests: make(map[core.Section]*storage.CollectionManifest),
	}
}

// EnsureCollections idempotently creates the per-section collections.
// Existing collections are re-asserted: the filterable field lists are
// refreshed, the vector dimensionality must match.
func (s *VectorStore) EnsureCollections(ctx context.Context, sections []core.Section, vectorDim int) error {
	if vectorDim <= 0 {
		return fmt.Errorf("invalid vector dimensionality %d", vectorDim)
	}

	for _, section := range sections {
		if !core.ValidSection(section) {
			return fmt.Errorf("%w: %s", core.ErrInvalidSection, section)
		}
		name := CollectionName(section)

		existing, err := s.loadManifest(section)
		if err != nil && !errors.Is(err, storage.ErrCollectionNotFound) {
			return err
		}
		if existing != nil && existing.VectorDim != vectorDim {
			return fmt.Errorf("ensure %s: %w", name, &storage.DimensionError{
				Collection: name,
				Expected:   existing.VectorDim,
				Got:        vectorDim,
			})
		}

		manifest := &storage.CollectionManifest{
			Name:          name,
			VectorDim:     vectorDim,
			KeywordFields: defaultKeywordFields,
			TextFields:    defaultTextFields,
		}
		err = s.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(makeManifestKey(name), storage.MarshalManifest(manifest)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.manifests[section] = manifest
		s.mu.Unlock()

		if existing == nil {
			s.logger.Info("created collection", "collection", name, "vector_dim", vectorDim)
		} else {
			s.logger.Debug("collection exists", "collection", name, "vector_dim", vectorDim)
		}
	}
	return nil
}

// Manifest returns the stored manifest for a section's collection.
func (s *VectorStore) Manifest(ctx context.Context, section core.Section) (*storage.CollectionManifest, error) {
	return s.loadManifest(section)
}

func (s *VectorStore) loadManifest(section core.Section) (*storage.CollectionManifest, error) {
	s.mu.RLock()
	cached := s.manifests[section]
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	name := CollectionName(section)
	var manifest *storage.CollectionManifest
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			manifest, err = storage.UnmarshalManifest(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.manifests[section] = manifest
	s.mu.Unlock()
	return manifest, nil
}

// WriteBatch writes one batch of points. The whole batch is rejected when
// any point's vector dimensionality does not match the collection schema.
func (s *VectorStore) WriteBatch(ctx context.Context, section core.Section, points []core.Chunk) error {
	if len(points) == 0 {
		return nil
	}
	manifest, err := s.loadManifest(section)
	if err != nil {
		return err
	}

	for i := range points {
		if len(points[i].Vector) != manifest.VectorDim {
			return &storage.DimensionError{
				Collection: manifest.Name,
				Expected:   manifest.VectorDim,
				Got:        len(points[i].Vector),
			}
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for i := range points {
			point := &points[i]
			if err := tx.Set(makePointKey(manifest.Name, point.ID), storage.MarshalChunk(point)); err != nil {
				return err
			}
			docKey := makePointDocKey(manifest.Name, point.DocumentID, point.ID)
			if err := tx.Set(docKey, []byte(point.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search scans the collection and returns the limit nearest points. No
// score threshold is applied: weak matches are returned and left to the
// caller to weigh. A missing collection yields an empty result.
func (s *VectorStore) Search(ctx context.Context, section core.Section, vector []float32, limit int, filter storage.IDFilter) ([]storage.ScoredPoint, error) {
	if limit <= 0 {
		return nil, nil
	}
	manifest, err := s.loadManifest(section)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		s.logger.Warn("search on missing collection", "section", string(section))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(vector) != manifest.VectorDim {
		return nil, &storage.DimensionError{
			Collection: manifest.Name,
			Expected:   manifest.VectorDim,
			Got:        len(vector),
		}
	}

	var results []storage.ScoredPoint
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePointScanPrefix(manifest.Name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(chunk.Vector) == 0 {
				continue
			}
			if !filter.Contains(chunk.DocumentID) {
				continue
			}

			// Cosine similarity; vectors are normalized at write time.
			score := dotProduct(vector, chunk.Vector)
			results = append(results, storage.ScoredPoint{Chunk: *chunk, Score: float64(score)})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b storage.ScoredPoint) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DocumentChunks returns every stored chunk of one document within one
// section's collection, in chunk id order.
func (s *VectorStore) DocumentChunks(ctx context.Context, section core.Section, documentID string) ([]core.Chunk, error) {
	manifest, err := s.loadManifest(section)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	documentID = core.CanonicalID(documentID)
	var chunks []core.Chunk
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePointDocScanPrefix(manifest.Name, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunkID, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := tx.Get(makePointKey(manifest.Name, string(chunkID)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, *chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteDocument removes every point of one document within one section's
// collection. Deleting from a missing collection is a no-op.
func (s *VectorStore) DeleteDocument(ctx context.Context, section core.Section, documentID string) (int, error) {
	manifest, err := s.loadManifest(section)
	if errors.Is(err, storage.ErrCollectionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	documentID = core.CanonicalID(documentID)
	deleted := 0
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePointDocScanPrefix(manifest.Name, documentID)
		iter := tx.NewIterator(opts)

		type entry struct {
			indexKey []byte
			chunkID  string
		}
		var entries []entry
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			chunkID, err := item.ValueCopy(nil)
			if err != nil {
				iter.Close()
				return err
			}
			entries = append(entries, entry{
				indexKey: item.KeyCopy(nil),
				chunkID:  string(chunkID),
			})
		}
		iter.Close()

		for _, e := range entries {
			if err := tx.Delete(makePointKey(manifest.Name, e.chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(e.indexKey); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Debug("deleted document points",
			"collection", manifest.Name, "document_id", documentID, "points", deleted)
	}
	return deleted, nil
}

// CollectionInfo summarizes one collection: point count and distinct
// document count.
func (s *VectorStore) CollectionInfo(ctx context.Context, section core.Section) (*storage.CollectionInfo, error) {
	manifest, err := s.loadManifest(section)
	if err != nil {
		return nil, err
	}

	info := &storage.CollectionInfo{
		Name:      manifest.Name,
		VectorDim: manifest.VectorDim,
	}
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePointScanPrefix(manifest.Name)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			info.Points++
		}
		iter.Close()

		docPrefix := []byte(pointDocPrefix + ":" + manifest.Name)
		docPrefix = append(docPrefix, sep)
		opts.Prefix = docPrefix
		iter = tx.NewIterator(opts)
		defer iter.Close()

		var lastDoc []byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			rest := key[len(docPrefix):]
			end := bytes.IndexByte(rest, sep)
			if end < 0 {
				continue
			}
			docID := rest[:end]
			if !bytes.Equal(docID, lastDoc) {
				info.Documents++
				lastDoc = append(lastDoc[:0], docID...)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
