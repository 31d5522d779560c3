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


package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/keywords"
	"github.com/poiesic/resumatch/storage"
)

// SectionWeights is the default relative importance of each section in
// the whole-document score. The weights sum to 1; a section a document
// did not match contributes zero to its aggregate.
var SectionWeights = map[core.Section]float64{
	core.SectionSkills:      0.45,
	core.SectionExperiences: 0.35,
	core.SectionSummary:     0.20,
}

// sectionOversample floors the per-section topK so a document that is
// strong in one section and middling in another still appears in both
// lists.
const sectionOversample = 100

// RankedDocument is one whole-document result with its score breakdown.
type RankedDocument struct {
	DocumentID string
	Score      float64
	Signals    core.Signals
}

// Aggregator ranks whole documents by combining per-section matches.
type Aggregator struct {
	retriever *Retriever
	weights   map[core.Section]float64
	pool      *ants.Pool
	logger    *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSectionWeights overrides the per-section weights. The weights are
// renormalized to sum to 1; sections outside the known set and
// non-positive weights are dropped. An empty or all-invalid map keeps
// the defaults.
func WithSectionWeights(weights map[core.Section]float64) AggregatorOption {
	return func(a *Aggregator) {
		cleaned := make(map[core.Section]float64, len(weights))
		var total float64
		for section, w := range weights {
			if !core.ValidSection(section) || w <= 0 {
				continue
			}
			cleaned[section] = w
			total += w
		}
		if total == 0 {
			return
		}
		for section := range cleaned {
			cleaned[section] /= total
		}
		a.weights = cleaned
	}
}

// NewAggregator creates a cross-section aggregator. The pool is sized to
// the section count: the three section searches of one query run
// concurrently.
func NewAggregator(retriever *Retriever, opts ...AggregatorOption) (*Aggregator, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	pool, err := ants.NewPool(len(core.Sections))
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		retriever: retriever,
		weights:   SectionWeights,
		pool:      pool,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// MatchDocuments ranks the topK documents against a query across all
// sections.
//
// Each section is searched concurrently and reduced to per-document
// semantic scores. A document's aggregate semantic score is the
// weighted sum over the sections it matched; a section with no match
// contributes zero. The keyword half is scored once, document-wide: the
// matched share of the query's keywords against the union of every
// section's matched terms.
func (a *Aggregator) MatchDocuments(ctx context.Context, query string, topK int, filter storage.IDFilter) ([]RankedDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	sectionMatches, err := a.matchSections(ctx, query, topK, filter)
	if err != nil {
		return nil, err
	}

	queryKeywords := keywords.Extract(query, a.retriever.minKeywordScore)
	ranked := a.aggregate(sectionMatches, queryKeywords)

	slices.SortFunc(ranked, func(x, y RankedDocument) int {
		if x.Score > y.Score {
			return -1
		}
		if x.Score < y.Score {
			return 1
		}
		return strings.Compare(x.DocumentID, y.DocumentID)
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// matchSections fans the per-section searches out on the pool and
// collects their results with an oversampled per-section topK.
func (a *Aggregator) matchSections(ctx context.Context, query string, topK int, filter storage.IDFilter) (map[core.Section][]SectionMatch, error) {
	sectionTopK := topK * 3
	if sectionTopK < sectionOversample {
		sectionTopK = sectionOversample
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[core.Section][]SectionMatch, len(core.Sections))
		errs    []error
	)
	for _, section := range core.Sections {
		section := section
		wg.Add(1)
		submitErr := a.pool.Submit(func() {
			defer wg.Done()
			matches, err := a.retriever.MatchSection(ctx, section, query, sectionTopK, filter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results[section] = matches
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	return results, nil
}

// aggregate folds per-section matches into whole-document scores.
func (a *Aggregator) aggregate(sectionMatches map[core.Section][]SectionMatch, queryKeywords []string) []RankedDocument {
	type docAccum struct {
		semantic map[core.Section]float64
		matched  map[string]struct{}
	}
	docs := make(map[string]*docAccum)

	for section, matches := range sectionMatches {
		for i := range matches {
			match := &matches[i]
			acc, ok := docs[match.DocumentID]
			if !ok {
				acc = &docAccum{
					semantic: make(map[core.Section]float64, len(core.Sections)),
					matched:  make(map[string]struct{}),
				}
				docs[match.DocumentID] = acc
			}
			acc.semantic[section] = match.SemanticScore
			for _, kw := range match.MatchedKeywords {
				acc.matched[kw] = struct{}{}
			}
		}
	}

	ranked := make([]RankedDocument, 0, len(docs))
	for docID, acc := range docs {
		var weighted float64
		for section, score := range acc.semantic {
			weighted += a.weights[section] * score
		}

		var kwScore float64
		if len(queryKeywords) > 0 {
			kwScore = float64(len(acc.matched)) / float64(len(queryKeywords))
		}

		ranked = append(ranked, RankedDocument{
			DocumentID: docID,
			Score:      a.retriever.semanticWeight*weighted + a.retriever.keywordWeight*kwScore,
			Signals: core.Signals{
				SummaryScore:    acc.semantic[core.SectionSummary],
				SkillsScore:     acc.semantic[core.SectionSkills],
				ExperienceScore: acc.semantic[core.SectionExperiences],
				KeywordScore:    kwScore,
			},
		})
	}
	return ranked
}

// Release releases the worker pool. The aggregator should not be used
// after calling Release.
func (a *Aggregator) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}
