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


// Package resumatch ranks structured documents against free-text queries
// with hybrid semantic and keyword scoring. The Engine wires the stores,
// the AI provider and the pipelines into one handle.
package resumatch

import (
	"context"
	"log/slog"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/ai/openai"
	"github.com/poiesic/resumatch/index"
	"github.com/poiesic/resumatch/ingest"
	"github.com/poiesic/resumatch/redrive"
	"github.com/poiesic/resumatch/search"
	"github.com/poiesic/resumatch/storage"
	"github.com/poiesic/resumatch/storage/badger"
)

// Engine is the top-level handle: one open backend plus the services
// built over it.
type Engine struct {
	backend   *badger.Backend
	vectors   *badger.VectorStore
	documents *badger.DocumentStore
	client    *index.Client
	provider  ai.Provider
	splitter  *ai.Splitter
	config    *ai.Config
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the AI configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens a transient in-memory backend, ignoring the path.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the backend at filePath and wires the services.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	vectors := badger.NewVectorStore(backend)
	documents := badger.NewDocumentStore(backend)

	client, err := index.NewClient(vectors)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	splitter, err := ai.NewSplitter(options.aiConfig)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:   backend,
		vectors:   vectors,
		documents: documents,
		client:    client,
		provider:  provider,
		splitter:  splitter,
		config:    options.aiConfig,
		logger:    slog.Default(),
	}, nil
}

// Bootstrap idempotently creates the per-section collections with the
// configured vector dimensionality. Safe to run on every start.
func (e *Engine) Bootstrap(ctx context.Context) error {
	return e.client.EnsureCollections(ctx, e.config.VectorDim)
}

// VectorStore returns the vector collections.
func (e *Engine) VectorStore() storage.VectorStore {
	return e.vectors
}

// DocumentStore returns the document snapshots and role lookup.
func (e *Engine) DocumentStore() storage.DocumentStore {
	return e.documents
}

// IndexClient returns the batched write client.
func (e *Engine) IndexClient() *index.Client {
	return e.client
}

// NewIngestPipeline builds an ingestion pipeline over the engine's
// stores and embedder.
func (e *Engine) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(e.documents, e.client, e.provider.Embedder(), e.splitter, opts...)
}

// NewRetriever builds a per-section retriever.
func (e *Engine) NewRetriever(opts ...search.RetrieverOption) (*search.Retriever, error) {
	return search.NewRetriever(e.vectors, e.provider.Embedder(), opts...)
}

// NewAggregator builds a whole-document aggregator.
func (e *Engine) NewAggregator(opts ...search.AggregatorOption) (*search.Aggregator, error) {
	retriever, err := e.NewRetriever()
	if err != nil {
		return nil, err
	}
	return search.NewAggregator(retriever, opts...)
}

// NewRederiver builds a rate-limit-aware section derivation driver.
func (e *Engine) NewRederiver(opts ...redrive.Option) *redrive.Rederiver {
	return redrive.NewRederiver(e.provider.SectionDeriver(), opts...)
}

// FilterByRoles resolves role labels to a candidate filter. An empty
// role list yields a nil filter (no narrowing); roles that match no
// document yield an empty, fully-exclusive filter.
func (e *Engine) FilterByRoles(ctx context.Context, roles []string) (storage.IDFilter, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	ids, err := e.documents.IDsByRoles(ctx, roles)
	if err != nil {
		return nil, err
	}
	filter := make(storage.IDFilter, len(ids))
	for _, id := range ids {
		filter[id] = struct{}{}
	}
	return filter, nil
}

// Close shuts the engine down: provider first, backend last.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
