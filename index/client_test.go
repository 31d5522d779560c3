package index

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
	badgerstore "github.com/poiesic/resumatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyWriter fails specific batches (keyed by first chunk id) on every
// attempt, and passes everything else through.
type flakyWriter struct {
	inner    batchWriter
	failIDs  map[string]bool
	mu       sync.Mutex
	attempts int
}

func (w *flakyWriter) WriteBatch(ctx context.Context, section core.Section, points []core.Chunk) error {
	w.mu.Lock()
	w.attempts++
	w.mu.Unlock()
	if len(points) > 0 && w.failIDs[points[0].ID] {
		return errors.New("simulated write failure")
	}
	return w.inner.WriteBatch(ctx, section, points)
}

func newTestClient(t *testing.T, opts ...Option) (*Client, storage.VectorStore) {
	t.Helper()
	vectors, _, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	require.NoError(t, vectors.EnsureCollections(context.Background(), core.Sections, 3))

	client, err := NewClient(vectors, opts...)
	require.NoError(t, err)
	return client, vectors
}

func chunkWithVector(docID string, section core.Section, idx int) core.Chunk {
	return core.Chunk{
		ID:          core.ChunkID(docID, section, 0, idx),
		DocumentID:  docID,
		Section:     section,
		ChunkIndex:  idx,
		TotalChunks: idx + 1,
		Text:        "some text",
		Vector:      []float32{1, 0, 0},
	}
}

func TestUpsert_AllSucceed(t *testing.T) {
	client, vectors := newTestClient(t)
	ctx := context.Background()

	stats, err := client.Upsert(ctx, core.SectionSkills, []core.Chunk{
		chunkWithVector("doc-a", core.SectionSkills, 0),
		chunkWithVector("doc-a", core.SectionSkills, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, core.UpsertStats{Succeeded: 2}, stats)

	chunks, err := vectors.DocumentChunks(ctx, core.SectionSkills, "doc-a")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestUpsert_PartialBatchFailure(t *testing.T) {
	// Batch size 1 makes three batches; the middle one exhausts its
	// retries. Expected accounting: 2 succeeded, 1 failed, no error.
	vectors, _, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	require.NoError(t, vectors.EnsureCollections(context.Background(), core.Sections, 3))

	failing := chunkWithVector("doc-b", core.SectionSkills, 0)
	writer := &flakyWriter{
		inner:   vectors,
		failIDs: map[string]bool{failing.ID: true},
	}
	client, err := NewClient(vectors,
		WithBatchSize(1),
		WithRetry(2, time.Millisecond),
		withWriter(writer),
	)
	require.NoError(t, err)

	stats, err := client.Upsert(context.Background(), core.SectionSkills, []core.Chunk{
		chunkWithVector("doc-a", core.SectionSkills, 0),
		failing,
		chunkWithVector("doc-c", core.SectionSkills, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, core.UpsertStats{Succeeded: 2, Failed: 1}, stats)

	// The failing batch was attempted maxAttempts times.
	assert.Equal(t, 4, writer.attempts)
}

func TestUpsert_DropsInvalidChunks(t *testing.T) {
	client, _ := newTestClient(t)

	invalid := chunkWithVector("doc-a", core.SectionSkills, 0)
	invalid.Text = "   "

	stats, err := client.Upsert(context.Background(), core.SectionSkills, []core.Chunk{
		invalid,
		chunkWithVector("doc-a", core.SectionSkills, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, core.UpsertStats{Succeeded: 1, Failed: 1}, stats)
}

func TestUpsert_DimensionMismatchIsPerPoint(t *testing.T) {
	// A mismatched vector is a deterministic schema fault: the point is
	// dropped and counted, its siblings commit, and nothing is retried.
	vectors, _, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	require.NoError(t, vectors.EnsureCollections(context.Background(), core.Sections, 3))

	writer := &flakyWriter{inner: vectors}
	client, err := NewClient(vectors, WithRetry(3, time.Millisecond), withWriter(writer))
	require.NoError(t, err)

	short := chunkWithVector("doc-b", core.SectionSkills, 0)
	short.Vector = []float32{1, 0}

	stats, err := client.Upsert(context.Background(), core.SectionSkills, []core.Chunk{
		chunkWithVector("doc-a", core.SectionSkills, 0),
		short,
		chunkWithVector("doc-c", core.SectionSkills, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, core.UpsertStats{Succeeded: 2, Failed: 1}, stats)

	// One clean batch write for the two valid points, no retries.
	assert.Equal(t, 1, writer.attempts)

	chunks, err := vectors.DocumentChunks(context.Background(), core.SectionSkills, "doc-a")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestUpsert_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := client.Upsert(ctx, core.SectionSkills, []core.Chunk{
		chunkWithVector("doc-a", core.SectionSkills, 0),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Failed)
}

func TestDeleteDocument_AllSections(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for _, section := range core.Sections {
		_, err := client.Upsert(ctx, section, []core.Chunk{chunkWithVector("doc-a", section, 0)})
		require.NoError(t, err)
	}

	deleted, err := client.DeleteDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestRetryWithBackoff_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return wantErr
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_InvalidAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
