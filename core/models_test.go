package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain id", "65f1a2b3c4d5e6f7a8b9c0d1", "65f1a2b3c4d5e6f7a8b9c0d1"},
		{"surrounding whitespace", "  65f1a2b3c4d5e6f7a8b9c0d1 ", "65f1a2b3c4d5e6f7a8b9c0d1"},
		{"mixed case hex", "65F1A2B3C4D5E6F7A8B9C0D1", "65f1a2b3c4d5e6f7a8b9c0d1"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalID(tt.raw))
		})
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc-1", SectionExperiences, 2, 0)
	b := ChunkID("doc-1", SectionExperiences, 2, 0)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16) // 8 bytes hex-encoded
}

func TestChunkID_DistinctCoordinates(t *testing.T) {
	base := ChunkID("doc-1", SectionSummary, 0, 0)
	assert.NotEqual(t, base, ChunkID("doc-2", SectionSummary, 0, 0))
	assert.NotEqual(t, base, ChunkID("doc-1", SectionSkills, 0, 0))
	assert.NotEqual(t, base, ChunkID("doc-1", SectionSummary, 1, 0))
	assert.NotEqual(t, base, ChunkID("doc-1", SectionSummary, 0, 1))
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{"Python", "AWS", "python", "  ", "aws", "Go"})
	assert.Equal(t, []string{"aws", "go", "python"}, got)
}

func TestValidSection(t *testing.T) {
	for _, s := range Sections {
		assert.True(t, ValidSection(s))
	}
	assert.False(t, ValidSection(Section("education")))
}

func TestUpsertStats_Add(t *testing.T) {
	stats := UpsertStats{Succeeded: 2, Failed: 1}
	stats.Add(UpsertStats{Succeeded: 3, Failed: 0})
	assert.Equal(t, UpsertStats{Succeeded: 5, Failed: 1}, stats)
}
