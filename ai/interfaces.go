package ai

import (
	"context"
	"time"
)

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding backend fails; callers must not
	// substitute a default vector.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one batch.
	// The returned slice is in input order. Deterministic for a fixed
	// model: identical inputs produce identical vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DerivedExperience is one work experience record produced by section
// re-derivation.
type DerivedExperience struct {
	Role             string   `json:"role"`
	Company          string   `json:"company"`
	Environment      string   `json:"environment"`
	Responsibilities []string `json:"responsibilities"`
}

// DerivedSections is the structured output of LLM section re-derivation.
type DerivedSections struct {
	Summary     []string            `json:"summary"`
	Skills      []string            `json:"skills"`
	Experiences []DerivedExperience `json:"experiences"`
}

// RateInfo carries the rate-limit budgets reported by an LLM backend after
// a call. Unknown values are -1: providers that hide limit headers report
// both budgets unknown and the retry policy assumes token pressure for
// large prompts.
type RateInfo struct {
	// RemainingRequests is the remaining request budget, or -1 if unknown.
	RemainingRequests int

	// RemainingTokens is the remaining token budget, or -1 if unknown.
	RemainingTokens int

	// ResetTokens is the time until the token budget resets.
	ResetTokens time.Duration

	// DailyLimit is true when the reported budget is the daily quota.
	DailyLimit bool
}

// Unknown reports whether the backend exposed no limit headers at all.
func (r *RateInfo) Unknown() bool {
	return r == nil || (r.RemainingRequests < 0 && r.RemainingTokens < 0)
}

// SectionDeriver re-derives structured document sections from raw text
// using an external LLM. Implementations must be thread-safe.
type SectionDeriver interface {
	// DeriveSections parses raw document text into structured sections.
	// The returned RateInfo reflects the backend's limit headers and may
	// be nil when the backend exposes none.
	DeriveSections(ctx context.Context, raw string) (*DerivedSections, *RateInfo, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service, safe for concurrent use.
	Embedder() Embedder

	// SectionDeriver returns the section re-derivation service, safe for
	// concurrent use.
	SectionDeriver() SectionDeriver

	// Close releases resources held by the provider and its services.
	Close() error
}
