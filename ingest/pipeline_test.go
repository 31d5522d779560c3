package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/ai/mock"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/index"
	badgerstore "github.com/poiesic/resumatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	pipeline *Pipeline
	vectors  *badgerstore.VectorStore
	docs     *badgerstore.DocumentStore
	embedder *mock.MockEmbedder
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	vectors, docs, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	require.NoError(t, vectors.EnsureCollections(context.Background(), core.Sections, 384))

	client, err := index.NewClient(vectors)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	splitter, err := ai.NewSplitter(ai.NewConfig())
	require.NoError(t, err)

	pipeline, err := NewPipeline(docs, client, embedder, splitter,
		WithEmbedRetry(2, time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &pipelineFixture{pipeline: pipeline, vectors: vectors, docs: docs, embedder: embedder}
}

func TestIngestDocument(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	stats, err := f.pipeline.IngestDocument(ctx, testDocument())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Zero(t, stats.Failed)

	// The snapshot is stored.
	doc, err := f.docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "backend engineer", doc.PrimaryRole)

	// The points are searchable.
	query, err := f.embedder.EmbedText(ctx, "Go, PostgreSQL, Kubernetes")
	require.NoError(t, err)
	results, err := f.vectors.Search(ctx, core.SectionSkills, query, 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-1", results[0].Chunk.DocumentID)
}

func TestIngestDocument_ReingestRemovesStaleChunks(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.IngestDocument(ctx, testDocument())
	require.NoError(t, err)

	// Re-ingest with one experience dropped.
	shorter := testDocument()
	shorter.Experiences = shorter.Experiences[:1]
	_, err = f.pipeline.IngestDocument(ctx, shorter)
	require.NoError(t, err)

	chunks, err := f.vectors.DocumentChunks(ctx, core.SectionExperiences, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "Backend Engineer", chunks[0].ExperienceRole)
}

func TestIngestDocument_EmbeddingFailure(t *testing.T) {
	f := newPipelineFixture(t)

	// Batch and per-chunk embedding both down: no chunk embeds.
	wantErr := errors.New("embedding backend down")
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, wantErr
	}
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, wantErr
	}

	stats, err := f.pipeline.IngestDocument(context.Background(), testDocument())
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 4, stats.Failed)

	// Nothing was stored for the failed document.
	_, err = f.docs.GetDocument(context.Background(), "doc-1")
	assert.Error(t, err)
}

func TestIngestDocument_SkipsChunksThatFailToEmbed(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	// The batch call is down; the per-chunk fallback embeds everything
	// except the skills chunk.
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("batch too large")
	}
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "PostgreSQL") {
			return nil, errors.New("oversized input")
		}
		return mock.DeterministicVector(text, 384), nil
	}

	stats, err := f.pipeline.IngestDocument(ctx, testDocument())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	// The rest of the document made it in.
	doc, err := f.docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "backend engineer", doc.PrimaryRole)

	skills, err := f.vectors.DocumentChunks(ctx, core.SectionSkills, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, skills)
	experiences, err := f.vectors.DocumentChunks(ctx, core.SectionExperiences, "doc-1")
	require.NoError(t, err)
	assert.Len(t, experiences, 2)
}

func TestIngestDocument_ShortEmbeddingResultFallsBack(t *testing.T) {
	f := newPipelineFixture(t)

	// A misbehaving backend returns fewer vectors than texts: the batch
	// is rejected instead of misassigning vectors, and the per-chunk
	// fallback carries the document.
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{mock.DeterministicVector(texts[0], 384)}, nil
	}

	stats, err := f.pipeline.IngestDocument(context.Background(), testDocument())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Zero(t, stats.Failed)
}

func TestIngestDocument_EmbeddingRetries(t *testing.T) {
	f := newPipelineFixture(t)

	calls := 0
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	stats, err := f.pipeline.IngestDocument(context.Background(), testDocument())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 2, calls)
}

func TestIngestAll(t *testing.T) {
	f := newPipelineFixture(t)

	docs := []*core.Document{
		{ID: "a", Skills: []string{"Go"}},
		{ID: "b", Skills: []string{"Rust"}},
		{ID: "c", Skills: []string{"Python"}},
	}
	results := f.pipeline.IngestAll(context.Background(), docs)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, docs[i].ID, r.DocumentID)
		assert.Equal(t, 1, r.Stats.Succeeded)
	}
}

func TestIngestAll_OneFailureDoesNotStopOthers(t *testing.T) {
	f := newPipelineFixture(t)

	docs := []*core.Document{
		{ID: "a", Skills: []string{"Go"}},
		{ID: "   ", Skills: []string{"Rust"}}, // invalid id
		{ID: "c", Skills: []string{"Python"}},
	}
	results := f.pipeline.IngestAll(context.Background(), docs)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, core.ErrEmptyDocumentID)
	assert.NoError(t, results[2].Err)
}
