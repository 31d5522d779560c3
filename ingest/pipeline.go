package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/index"
	"github.com/poiesic/resumatch/keywords"
	"github.com/poiesic/resumatch/storage"
)

// Pipeline orchestrates document ingestion: chunking, embedding, and
// indexing. Re-ingesting a document first deletes its stored points, so
// a shorter re-ingestion leaves no stale chunks behind.
type Pipeline struct {
	documents storage.DocumentStore
	client    *index.Client
	embedder  ai.Embedder
	builder   *Builder

	pool            *ants.Pool
	embedAttempts   int
	embedBaseDelay  time.Duration
	minKeywordScore float64
	splitterForOpts *ai.Splitter
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for multi-document ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithEmbedRetry sets the embedding retry policy.
func WithEmbedRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return index.ErrInvalidMaxAttempts
		}
		p.embedAttempts = maxAttempts
		p.embedBaseDelay = baseDelay
		return nil
	}
}

// WithMinKeywordScore sets the keyword extraction threshold used when
// building chunks.
func WithMinKeywordScore(score float64) Option {
	return func(p *Pipeline) error {
		p.minKeywordScore = score
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	documents storage.DocumentStore,
	client *index.Client,
	embedder ai.Embedder,
	splitter *ai.Splitter,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentStoreRequired
	}
	if client == nil {
		return nil, ErrIndexClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:       documents,
		client:          client,
		embedder:        embedder,
		pool:            pool,
		embedAttempts:   3,
		embedBaseDelay:  time.Second,
		minKeywordScore: keywords.DefaultMinScore,
		splitterForOpts: splitter,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Build after options so the builder sees the final threshold.
	p.builder = NewBuilder(p.splitterForOpts, p.minKeywordScore)
	return p, nil
}

// IngestDocument ingests one document: builds its chunks, embeds them,
// stores the document snapshot, clears the document's previous points,
// and upserts the new ones. Chunks that fail to embed are skipped, and
// both they and partial upsert failures are reported in the stats, not
// as an error.
func (p *Pipeline) IngestDocument(ctx context.Context, doc *core.Document) (core.UpsertStats, error) {
	var stats core.UpsertStats

	built, err := p.builder.BuildChunks(doc)
	if err != nil {
		return stats, err
	}

	chunks, skipped, err := p.embedChunks(ctx, built)
	stats.Failed += skipped
	if err != nil {
		return stats, err
	}

	if err := p.documents.PutDocuments(ctx, doc); err != nil {
		return stats, err
	}

	// Clear previous points first: deterministic chunk ids overwrite in
	// place, but a shorter re-ingestion would otherwise leave the tail
	// of the longer run in the index.
	if _, err := p.client.DeleteDocument(ctx, doc.ID); err != nil {
		return stats, err
	}

	for _, section := range core.Sections {
		var sectionChunks []core.Chunk
		for i := range chunks {
			if chunks[i].Section == section {
				sectionChunks = append(sectionChunks, chunks[i])
			}
		}
		if len(sectionChunks) == 0 {
			continue
		}
		sectionStats, err := p.client.Upsert(ctx, section, sectionChunks)
		stats.Add(sectionStats)
		if err != nil {
			return stats, err
		}
	}

	p.logger.Info("ingested document",
		"document_id", core.CanonicalID(doc.ID),
		"chunks", len(chunks),
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)
	return stats, nil
}

// Result is the outcome of ingesting one document in a batch.
type Result struct {
	DocumentID string
	Stats      core.UpsertStats
	Err        error
}

// IngestAll ingests documents concurrently on the worker pool and returns
// one result per document, in input order. A failed document does not
// stop the others.
func (p *Pipeline) IngestAll(ctx context.Context, docs []*core.Document) []Result {
	results := make([]Result, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		i, doc := i, doc
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			stats, err := p.IngestDocument(ctx, doc)
			results[i] = Result{
				DocumentID: core.CanonicalID(doc.ID),
				Stats:      stats,
				Err:        err,
			}
		})
		if err != nil {
			wg.Done()
			results[i] = Result{DocumentID: core.CanonicalID(doc.ID), Err: err}
		}
	}
	wg.Wait()
	return results
}

// embedChunks fills in chunk vectors, one batched embedding call per
// document retried with backoff. When the batch cannot be embedded it
// falls back to embedding chunk by chunk, so one stubborn chunk is
// skipped and counted instead of sinking the document. The returned
// error is non-nil only when the context is done or no chunk embedded
// at all.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []core.Chunk) ([]core.Chunk, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	var vectors [][]float32
	err := index.RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}
		return nil
	}, p.embedAttempts, p.embedBaseDelay)
	if err == nil {
		for i := range chunks {
			chunks[i].Vector = vectors[i]
		}
		return chunks, 0, nil
	}
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}

	p.logger.Warn("batch embedding failed, retrying chunks individually",
		"chunks", len(chunks), "err", err)
	return p.embedIndividually(ctx, chunks)
}

// embedIndividually embeds chunks one at a time, skipping the ones that
// still fail after retries.
func (p *Pipeline) embedIndividually(ctx context.Context, chunks []core.Chunk) ([]core.Chunk, int, error) {
	embedded := make([]core.Chunk, 0, len(chunks))
	skipped := 0
	var lastErr error

	for i := range chunks {
		var vector []float32
		err := index.RetryWithBackoff(ctx, func() error {
			var err error
			vector, err = p.embedder.EmbedText(ctx, chunks[i].Text)
			return err
		}, p.embedAttempts, p.embedBaseDelay)
		if err != nil {
			if ctx.Err() != nil {
				return nil, skipped, ctx.Err()
			}
			p.logger.Warn("skipping chunk, embedding failed",
				"chunk_id", chunks[i].ID, "err", err)
			skipped++
			lastErr = err
			continue
		}
		chunks[i].Vector = vector
		embedded = append(embedded, chunks[i])
	}

	if len(embedded) == 0 {
		return nil, skipped, lastErr
	}
	return embedded, skipped, nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
