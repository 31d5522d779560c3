package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSplitter(t *testing.T, opts ...ConfigOption) *Splitter {
	t.Helper()
	s, err := NewSplitter(NewConfig(opts...))
	require.NoError(t, err)
	return s
}

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word", "kubernetes", 1},
		{"words and punctuation", "Go, Python and AWS.", 4},
		{"newlines", "first line\nsecond line", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokenCount(tt.text))
		})
	}
}

func TestSplitter_ShortTextUnsplit(t *testing.T) {
	s := newTestSplitter(t)

	text := "Senior backend engineer with ten years of Go experience."
	chunks := s.Chunk(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitter_EmptyText(t *testing.T) {
	s := newTestSplitter(t)
	assert.Nil(t, s.Chunk("   \n\t  "))
}

func TestSplitter_LongTextSplits(t *testing.T) {
	s := newTestSplitter(t, WithChunking(200, 40))

	// Well past the 256-token default budget.
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("designed and operated distributed ingestion pipelines for searchable archives.\n")
	}
	chunks := s.Chunk(b.String())

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitter_Deterministic(t *testing.T) {
	s := newTestSplitter(t, WithChunking(200, 40))

	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("built event-driven services handling millions of requests per day.\n")
	}
	text := b.String()

	first := s.Chunk(text)
	second := s.Chunk(text)
	assert.Equal(t, first, second)
}

func TestSplitter_NeedsSplit(t *testing.T) {
	s := newTestSplitter(t)

	assert.False(t, s.NeedsSplit("short text"))
	assert.False(t, s.NeedsSplit(""))

	long := strings.Repeat("word ", 300) // past 256 * 0.8
	assert.True(t, s.NeedsSplit(long))
}

func TestTokenBudget(t *testing.T) {
	tests := []struct {
		name  string
		model string
		dim   int
		want  int
	}{
		{"known model", "text-embedding-3-small", 1536, 8191},
		{"known small model", "all-MiniLM-L6-v2", 384, 256},
		{"unknown 768-dim", "custom-768", 768, 512},
		{"unknown 384-dim", "custom-384", 384, 256},
		{"unknown 1536-dim", "custom-1536", 1536, 8191},
		{"unknown everything", "mystery", 123, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenBudget(tt.model, tt.dim))
		})
	}
}
