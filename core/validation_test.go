package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{"valid", &Document{ID: "doc-1"}, nil},
		{"nil document", nil, ErrEmptyDocumentID},
		{"blank id", &Document{ID: "   "}, ErrEmptyDocumentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	valid := Chunk{
		ID:         ChunkID("doc-1", SectionSummary, 0, 0),
		DocumentID: "doc-1",
		Section:    SectionSummary,
		Text:       "seasoned platform engineer",
	}

	t.Run("valid summary chunk", func(t *testing.T) {
		c := valid
		assert.NoError(t, ValidateChunk(&c))
	})

	t.Run("nil chunk", func(t *testing.T) {
		assert.Error(t, ValidateChunk(nil))
	})

	t.Run("missing document id", func(t *testing.T) {
		c := valid
		c.DocumentID = ""
		assert.ErrorIs(t, ValidateChunk(&c), ErrEmptyDocumentID)
	})

	t.Run("unknown section", func(t *testing.T) {
		c := valid
		c.Section = Section("certifications")
		assert.ErrorIs(t, ValidateChunk(&c), ErrInvalidSection)
	})

	t.Run("whitespace-only text", func(t *testing.T) {
		c := valid
		c.Text = " \n\t "
		assert.ErrorIs(t, ValidateChunk(&c), ErrEmptyChunkText)
	})

	t.Run("experience fields on summary chunk", func(t *testing.T) {
		c := valid
		c.Company = "Acme"
		assert.ErrorIs(t, ValidateChunk(&c), ErrExperienceFields)
	})

	t.Run("experience chunk carries its context", func(t *testing.T) {
		c := Chunk{
			DocumentID:      "doc-1",
			Section:         SectionExperiences,
			Text:            "Role: Backend Engineer",
			ExperienceRole:  "Backend Engineer",
			Company:         "Acme",
			Environment:     "Go, Kubernetes",
			ExperienceIndex: 1,
		}
		assert.NoError(t, ValidateChunk(&c))
	})
}
