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

import "errors"

// Domain validation errors
var (
	// ErrEmptyDocumentID indicates a document has no id after canonicalization.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrInvalidSection indicates a section name outside the closed set.
	ErrInvalidSection = errors.New("invalid section")

	// ErrEmptyChunkText indicates chunk text is empty after trimming.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrMissingVector indicates a chunk has no embedding vector.
	ErrMissingVector = errors.New("chunk vector cannot be empty")

	// ErrExperienceFields indicates experience variant fields set on a
	// non-experience chunk.
	ErrExperienceFields = errors.New("experience fields are only valid on experience chunks")
)
