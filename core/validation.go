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


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty after canonicalization
//
// NOT validated (a document may legitimately lack sections):
//   - Summary, Skills, Experiences (empty sections are skipped at ingestion)
//   - Category, PrimaryRole (optional metadata)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrEmptyDocumentID)
	}
	if CanonicalID(doc.ID) == "" {
		return ErrEmptyDocumentID
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Section must be a member of the closed section set
//   - Text must not be empty after trimming
//   - experience variant fields only on experience chunks
//
// NOT validated:
//   - Vector (empty until the embedding step runs; dimension is checked
//     against the collection at write time)
//   - Keywords (may be empty for keyword-poor text)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrEmptyChunkText)
	}

	if chunk.DocumentID == "" {
		return ErrEmptyDocumentID
	}

	if !ValidSection(chunk.Section) {
		return fmt.Errorf("%w: %q", ErrInvalidSection, chunk.Section)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return ErrEmptyChunkText
	}

	if chunk.Section != SectionExperiences {
		if chunk.ExperienceRole != "" || chunk.Company != "" || chunk.Environment != "" {
			return ErrExperienceFields
		}
	}

	return nil
}
