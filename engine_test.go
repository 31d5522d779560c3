package resumatch

import (
	"context"
	"testing"

	"github.com/poiesic/resumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestEngine_BootstrapIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Bootstrap(ctx))
	require.NoError(t, engine.Bootstrap(ctx))

	for _, section := range core.Sections {
		info, err := engine.VectorStore().CollectionInfo(ctx, section)
		require.NoError(t, err)
		assert.Equal(t, 384, info.VectorDim)
		assert.Zero(t, info.Points)
	}
}

func TestEngine_FilterByRoles(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.Bootstrap(ctx))

	require.NoError(t, engine.DocumentStore().PutDocuments(ctx,
		&core.Document{ID: "d1", PrimaryRole: "data engineer/analyst"},
		&core.Document{ID: "d2", PrimaryRole: "backend engineer"},
	))

	// No roles: no narrowing.
	filter, err := engine.FilterByRoles(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, filter)

	// Role variants with slash spacing resolve to the same documents.
	filter, err = engine.FilterByRoles(ctx, []string{"Data Engineer / Analyst"})
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.True(t, filter.Contains("d1"))
	assert.False(t, filter.Contains("d2"))

	// Unmatched roles give an empty, fully exclusive filter.
	filter, err = engine.FilterByRoles(ctx, []string{"astronaut"})
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.False(t, filter.Contains("d1"))
}

func TestEngine_ServiceConstructors(t *testing.T) {
	engine := newTestEngine(t)

	retriever, err := engine.NewRetriever()
	require.NoError(t, err)
	assert.NotNil(t, retriever)

	aggregator, err := engine.NewAggregator()
	require.NoError(t, err)
	t.Cleanup(aggregator.Release)

	pipeline, err := engine.NewIngestPipeline()
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	assert.NotNil(t, engine.NewRederiver())
	assert.NotNil(t, engine.IndexClient())
}
