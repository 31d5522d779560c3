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


// Package search ranks documents against free-text queries with hybrid
// semantic and keyword scoring, per section and across sections.
package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/keywords"
	"github.com/poiesic/resumatch/storage"
)

const (
	// SemanticWeight and KeywordWeight blend the two score halves.
	SemanticWeight = 0.7
	KeywordWeight  = 0.3

	// oversampleFactor and minOversample size the chunk-level search so
	// per-document reduction still has topK distinct documents to pick
	// from. Chunk hits cluster: one strong document can fill the head
	// of the hit list with its own chunks.
	oversampleFactor = 20
	minOversample    = 50

	// Widening bounds for filtered searches that come up short: each
	// round multiplies the limit, the limit never exceeds what the
	// filter population can justify, and the rounds are capped so a
	// filter of absent documents terminates.
	wideningFactor    = 4
	wideningMaxRounds = 2
	wideningPerDoc    = 5
	wideningCap       = 200
)

// SectionMatch is one ranked document within a single section.
type SectionMatch struct {
	DocumentID string

	// Score is the hybrid score: the semantic and keyword halves blended
	// with the configured weights, 0.7/0.3 by default.
	Score float64

	// SemanticScore is the maximum chunk similarity of the document.
	SemanticScore float64

	// KeywordScore is the matched share of the query's keywords.
	KeywordScore float64

	// MatchedKeywords are the query keywords found in the document's
	// section chunks.
	MatchedKeywords []string

	// BestChunk is the document's highest-scoring chunk.
	BestChunk core.Chunk
}

// Retriever ranks documents within one section.
type Retriever struct {
	vectors         storage.VectorStore
	embedder        ai.Embedder
	minKeywordScore float64
	semanticWeight  float64
	keywordWeight   float64
	logger          *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithMinKeywordScore sets the query keyword extraction threshold.
func WithMinKeywordScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		r.minKeywordScore = score
	}
}

// WithScoreWeights overrides the semantic and keyword blend weights.
// The weights are used as given, without renormalization.
func WithScoreWeights(semantic, keyword float64) RetrieverOption {
	return func(r *Retriever) {
		r.semanticWeight = semantic
		r.keywordWeight = keyword
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever creates a section retriever.
func NewRetriever(vectors storage.VectorStore, embedder ai.Embedder, opts ...RetrieverOption) (*Retriever, error) {
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	r := &Retriever{
		vectors:         vectors,
		embedder:        embedder,
		minKeywordScore: keywords.DefaultMinScore,
		semanticWeight:  SemanticWeight,
		keywordWeight:   KeywordWeight,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MatchSection ranks the topK documents of one section against a query.
//
// The chunk-level search is oversampled, reduced to one semantic score
// per document by max-aggregation, and blended with the keyword overlap
// between the query's terms and the document's section keywords. When a
// candidate filter is set and the reduction comes up short of topK, the
// search is widened within fixed bounds before giving up.
func (r *Retriever) MatchSection(ctx context.Context, section core.Section, query string, topK int, filter storage.IDFilter) ([]SectionMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	queryKeywords := keywords.Extract(query, r.minKeywordScore)

	points, err := r.retrieve(ctx, section, vector, topK, filter)
	if err != nil {
		return nil, err
	}

	matches, err := r.reduce(ctx, section, points, queryKeywords)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(matches, compareMatches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// retrieve runs the oversampled chunk search, widening it when a filter
// starves the result below topK distinct documents.
func (r *Retriever) retrieve(ctx context.Context, section core.Section, vector []float32, topK int, filter storage.IDFilter) ([]storage.ScoredPoint, error) {
	limit := topK * oversampleFactor
	if limit < minOversample {
		limit = minOversample
	}

	points, err := r.vectors.Search(ctx, section, vector, limit, filter)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return points, nil
	}

	maxLimit := len(filter) * wideningPerDoc
	if maxLimit > wideningCap {
		maxLimit = wideningCap
	}

	for round := 0; round < wideningMaxRounds; round++ {
		if countDocuments(points) >= topK || limit >= maxLimit {
			break
		}
		limit *= wideningFactor
		if limit > maxLimit {
			limit = maxLimit
		}

		wider, err := r.vectors.Search(ctx, section, vector, limit, filter)
		if err != nil {
			return nil, err
		}
		// A wider search is a superset of the narrower one, so the new
		// result replaces rather than merges.
		if len(wider) <= len(points) {
			break
		}
		points = wider
		r.logger.Debug("widened filtered search",
			"section", string(section), "limit", limit, "documents", countDocuments(points))
	}
	return points, nil
}

// reduce folds chunk hits into per-document matches: the semantic score
// is the document's best chunk, the keyword score is the matched share
// of query keywords against the union of every chunk the document has
// stored in this section. The hits bound the keyword scope would miss a
// keyword-bearing chunk that similarity ranked below the search limit,
// so the union is fetched per candidate, not read off the hits.
func (r *Retriever) reduce(ctx context.Context, section core.Section, points []storage.ScoredPoint, queryKeywords []string) ([]SectionMatch, error) {
	byDoc := make(map[string]*SectionMatch)

	for i := range points {
		point := &points[i]
		docID := point.Chunk.DocumentID

		match, ok := byDoc[docID]
		if !ok {
			byDoc[docID] = &SectionMatch{DocumentID: docID, SemanticScore: point.Score, BestChunk: point.Chunk}
		} else if point.Score > match.SemanticScore {
			match.SemanticScore = point.Score
			match.BestChunk = point.Chunk
		}
	}

	matches := make([]SectionMatch, 0, len(byDoc))
	for docID, match := range byDoc {
		if len(queryKeywords) > 0 {
			docKeywords, err := r.documentKeywords(ctx, section, docID)
			if err != nil {
				return nil, err
			}
			match.MatchedKeywords = intersect(queryKeywords, docKeywords)
			match.KeywordScore = keywordShare(queryKeywords, match.MatchedKeywords)
		}
		match.Score = r.semanticWeight*match.SemanticScore + r.keywordWeight*match.KeywordScore
		matches = append(matches, *match)
	}
	return matches, nil
}

// documentKeywords unions the keyword sets of every chunk one document
// has stored in a section's collection.
func (r *Retriever) documentKeywords(ctx context.Context, section core.Section, docID string) (map[string]struct{}, error) {
	chunks, err := r.vectors.DocumentChunks(ctx, section, docID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for i := range chunks {
		for _, kw := range chunks[i].Keywords {
			set[kw] = struct{}{}
		}
	}
	return set, nil
}

// keywordShare is the matched fraction of the query's keyword set. A
// keyword-free query contributes zero: the semantic half carries the
// score alone, unrescaled.
func keywordShare(queryKeywords, matched []string) float64 {
	if len(queryKeywords) == 0 {
		return 0
	}
	return float64(len(matched)) / float64(len(queryKeywords))
}

func intersect(queryKeywords []string, docKeywords map[string]struct{}) []string {
	var matched []string
	for _, kw := range queryKeywords {
		if _, ok := docKeywords[kw]; ok {
			matched = append(matched, kw)
		}
	}
	return matched
}

func countDocuments(points []storage.ScoredPoint) int {
	seen := make(map[string]struct{}, len(points))
	for i := range points {
		seen[points[i].Chunk.DocumentID] = struct{}{}
	}
	return len(seen)
}

// compareMatches orders by hybrid score descending, breaking ties by
// document id for deterministic output.
func compareMatches(a, b SectionMatch) int {
	if a.Score > b.Score {
		return -1
	}
	if a.Score < b.Score {
		return 1
	}
	return strings.Compare(a.DocumentID, b.DocumentID)
}
