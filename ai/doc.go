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


// Package ai provides abstractions for the AI services used by resumatch.
//
// It defines the interfaces for text embedding and LLM-based section
// re-derivation, plus the text splitter that bounds section text to the
// embedding model's context budget. Business logic depends on these
// abstractions rather than on a concrete backend.
//
//   - Embedder: batched text-to-vector encoding
//   - Splitter: chunking with a small-text short-circuit and a cascading
//     separator policy (paragraph, line, sentence, space)
//   - SectionDeriver: re-derives structured sections from raw text via an
//     external LLM (used by the redrive recovery path)
//
// Implementation sub-packages:
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; mock constructors return concrete types so tests can inject
// behavior and make call-count assertions.
package ai
