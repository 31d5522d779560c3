package ai

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// separators is the cascading split policy: paragraph, then line, then
// sentence, then space, then hard character boundary.
var separators = []string{"\n\n", "\n", ".", " ", ""}

// modelTokenLimits maps known embedding models to their context budgets.
var modelTokenLimits = map[string]int{
	"intfloat/e5-base-v2":                     512,
	"e5-large-v2":                             512,
	"sentence-transformers/all-mpnet-base-v2": 512,
	"sentence-transformers/all-MiniLM-L6-v2":  256,
	"all-MiniLM-L6-v2":                        256,
	"text-embedding-3-small":                  8191,
	"text-embedding-3-large":                  8191,
}

// safetyMargin leaves headroom under the model's context budget so the
// word-count estimate never overruns the real tokenizer.
const safetyMargin = 0.8

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// EstimateTokenCount roughly estimates the token count of text. Word
// splitting is close enough for split-threshold decisions.
func EstimateTokenCount(text string) int {
	if text == "" {
		return 0
	}
	return len(wordPattern.FindAllString(text, -1))
}

// Splitter chunks long text against an embedding model's context budget.
// Short text is returned whole; long text is split with the cascading
// separator policy, preserving original order. Splitting is deterministic.
type Splitter struct {
	inner     textsplitter.RecursiveCharacter
	maxTokens int
	logger    *slog.Logger
}

// NewSplitter creates a splitter from the AI configuration. The token
// budget is resolved from the model name, falling back to the
// dimensionality heuristic for unknown models.
func NewSplitter(config *Config) (*Splitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(separators),
		),
		maxTokens: tokenBudget(config.EmbeddingModel, config.VectorDim),
		logger:    slog.Default().With("component", "splitter"),
	}, nil
}

// tokenBudget resolves the context budget for a model. Unknown models fall
// back on dimensionality: 768-dim models are typically 512-token, 384-dim
// 256-token, 1536-dim 8191-token.
func tokenBudget(model string, dim int) int {
	if limit, ok := modelTokenLimits[model]; ok {
		return limit
	}
	switch dim {
	case 768:
		return 512
	case 384:
		return 256
	case 1536:
		return 8191
	}
	return 512
}

// NeedsSplit reports whether text exceeds the safe share of the model's
// context budget.
func (s *Splitter) NeedsSplit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	safeLimit := int(float64(s.maxTokens) * safetyMargin)
	return EstimateTokenCount(text) > safeLimit
}

// Chunk splits text into embeddable chunks. Text under the split threshold
// is returned unsplit as a single chunk. On a splitter failure the whole
// text is returned as one chunk: availability over chunk granularity.
func (s *Splitter) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !s.NeedsSplit(text) {
		return []string{text}
	}

	chunks, err := s.inner.SplitText(text)
	if err != nil {
		s.logger.Warn("text splitting failed, keeping text whole", "err", err)
		return []string{text}
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
