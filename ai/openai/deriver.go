package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/resumatch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const deriverSystemPrompt = `You convert raw resume text into structured JSON.
Return exactly one JSON object with this shape and nothing else:
{
  "summary": ["..."],
  "skills": ["..."],
  "experiences": [
    {"role": "...", "company": "...", "environment": "...", "responsibilities": ["..."]}
  ]
}
Use empty arrays for sections the text does not contain. Do not invent content.`

// SectionDeriver implements ai.SectionDeriver using OpenAI-compatible chat
// APIs.
type SectionDeriver struct {
	client llms.Model
	logger *slog.Logger
}

// newSectionDeriver is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newSectionDeriver(config *ai.Config) (*SectionDeriver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.DeriverHost),
		openai.WithToken("none"),
		openai.WithModel(config.DeriverModel),
	)
	if err != nil {
		return nil, err
	}

	return &SectionDeriver{
		client: client,
		logger: slog.Default().With("component", "openai-deriver"),
	}, nil
}

// NewSectionDeriver creates a new section deriver using the provided
// configuration.
//
// Returns ai.SectionDeriver interface to enforce abstraction.
func NewSectionDeriver(config *ai.Config) (ai.SectionDeriver, error) {
	return newSectionDeriver(config)
}

// DeriveSections parses raw resume text into structured sections. The
// transport does not expose rate-limit headers, so RateInfo is nil and the
// retry policy falls back to its hidden-headers classification.
func (d *SectionDeriver) DeriveSections(ctx context.Context, raw string) (*ai.DerivedSections, *ai.RateInfo, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(deriverSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(raw)},
		},
	}

	response, err := d.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		d.logger.Error("section derivation call failed", "err", err)
		return nil, nil, err
	}

	if len(response.Choices) < 1 {
		d.logger.Debug("no choices returned from model")
		return &ai.DerivedSections{}, nil, nil
	}

	var sections ai.DerivedSections
	payload := extractJSONObject(response.Choices[0].Content)
	if err := json.Unmarshal([]byte(payload), &sections); err != nil {
		d.logger.Error("failed to parse derived sections", "err", err)
		return nil, nil, err
	}

	return &sections, nil, nil
}

// extractJSONObject trims any prose the model wrapped around the JSON
// object, keeping the outermost brace-delimited span.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
