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


package ingest

import (
	"strings"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/keywords"
)

// Builder turns a structured document into per-section chunks ready for
// embedding. Flat sections are joined and split on the token budget;
// each experience is serialized and split on its own, so no chunk ever
// mixes text from two experiences.
type Builder struct {
	splitter        *ai.Splitter
	minKeywordScore float64
}

// NewBuilder creates a Builder over a configured splitter.
func NewBuilder(splitter *ai.Splitter, minKeywordScore float64) *Builder {
	return &Builder{
		splitter:        splitter,
		minKeywordScore: minKeywordScore,
	}
}

// BuildChunks produces every chunk of a document, across all sections.
// Chunks carry no vectors yet; the pipeline embeds them afterward.
// Empty sections yield no chunks.
func (b *Builder) BuildChunks(doc *core.Document) ([]core.Chunk, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	docID := core.CanonicalID(doc.ID)

	var chunks []core.Chunk
	chunks = append(chunks, b.buildFlatSection(doc, docID, core.SectionSummary, doc.Summary)...)
	chunks = append(chunks, b.buildFlatSection(doc, docID, core.SectionSkills, doc.Skills)...)
	for i := range doc.Experiences {
		chunks = append(chunks, b.buildExperience(doc, docID, i, &doc.Experiences[i])...)
	}
	return chunks, nil
}

// buildFlatSection chunks a list-of-lines section (summary, skills).
// Chunk keywords are the union of the chunk's own terms and the whole
// section's terms, so a term split away from its chunk still matches.
func (b *Builder) buildFlatSection(doc *core.Document, docID string, section core.Section, lines []string) []core.Chunk {
	text := joinNonEmpty(lines)
	if text == "" {
		return nil
	}

	sectionKeywords := keywords.Extract(text, b.minKeywordScore)
	parts := b.splitter.Chunk(text)

	chunks := make([]core.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, core.Chunk{
			ID:          core.ChunkID(docID, section, 0, i),
			DocumentID:  docID,
			Section:     section,
			ChunkIndex:  i,
			TotalChunks: len(parts),
			Text:        part,
			Keywords:    unionKeywords(keywords.Extract(part, b.minKeywordScore), sectionKeywords),
			Category:    doc.Category,
			PrimaryRole: doc.PrimaryRole,
		})
	}
	return chunks
}

// buildExperience serializes and chunks one experience record.
func (b *Builder) buildExperience(doc *core.Document, docID string, expIndex int, exp *core.Experience) []core.Chunk {
	text := serializeExperience(exp)
	if text == "" {
		return nil
	}

	expKeywords := keywords.Extract(text, b.minKeywordScore)
	parts := b.splitter.Chunk(text)

	chunks := make([]core.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, core.Chunk{
			ID:          core.ChunkID(docID, core.SectionExperiences, expIndex, i),
			DocumentID:  docID,
			Section:     core.SectionExperiences,
			ChunkIndex:  i,
			TotalChunks: len(parts),
			Text:        part,
			Keywords:    unionKeywords(keywords.Extract(part, b.minKeywordScore), expKeywords),
			Category:    doc.Category,
			PrimaryRole: doc.PrimaryRole,

			ExperienceRole:  exp.Role,
			Company:         exp.Company,
			Environment:     exp.Environment,
			ExperienceIndex: expIndex,
		})
	}
	return chunks
}

// serializeExperience renders one experience as labeled lines. Empty
// fields are omitted rather than rendered as empty labels.
func serializeExperience(exp *core.Experience) string {
	var sb strings.Builder
	writeLabeled := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	writeLabeled("Role", exp.Role)
	writeLabeled("Company", exp.Company)
	writeLabeled("Environment", exp.Environment)

	responsibilities := make([]string, 0, len(exp.Responsibilities))
	for _, r := range exp.Responsibilities {
		if r = strings.TrimSpace(r); r != "" {
			responsibilities = append(responsibilities, r)
		}
	}
	if len(responsibilities) > 0 {
		sb.WriteString("Responsibilities:\n")
		for _, r := range responsibilities {
			sb.WriteString("- ")
			sb.WriteString(r)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func joinNonEmpty(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func unionKeywords(a, b []string) []string {
	return core.NormalizeKeywords(append(append([]string{}, a...), b...))
}
