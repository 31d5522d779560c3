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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// DeriverHost is the base URL for the section re-derivation API.
	DeriverHost string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "all-MiniLM-L6-v2", "text-embedding-3-small"
	EmbeddingModel string

	// DeriverModel is the model identifier for section re-derivation.
	// Example: "llama-3.1-8b-instant", "gpt-4o-mini"
	DeriverModel string

	// VectorDim is the embedding model's output dimensionality; every
	// collection is created with this size and every point is checked
	// against it.
	// Default: 384 (all-MiniLM-L6-v2)
	VectorDim int

	// ChunkSize is the target chunk size in characters for the splitter.
	// Default: 1000
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks in characters.
	// Default: 150
	ChunkOverlap int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithDeriverHost sets the section deriver host URL.
func WithDeriverHost(host string) ConfigOption {
	return func(c *Config) {
		c.DeriverHost = host
	}
}

// WithHost sets both embedding and deriver hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.DeriverHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDeriverModel sets the deriver model identifier.
func WithDeriverModel(model string) ConfigOption {
	return func(c *Config) {
		c.DeriverModel = model
	}
}

// WithVectorDim sets the embedding dimensionality.
func WithVectorDim(dim int) ConfigOption {
	return func(c *Config) {
		c.VectorDim = dim
	}
}

// WithChunking sets the splitter's chunk size and overlap.
func WithChunking(size, overlap int) ConfigOption {
	return func(c *Config) {
		c.ChunkSize = size
		c.ChunkOverlap = overlap
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		DeriverHost:    defaultHost,
		EmbeddingModel: "all-MiniLM-L6-v2",
		DeriverModel:   "llama-3.1-8b-instant",
		VectorDim:      384,
		ChunkSize:      1000,
		ChunkOverlap:   150,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	    ai.WithVectorDim(1536),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds the
// /v1 suffix to hosts if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.DeriverHost != "" && !strings.HasSuffix(c.DeriverHost, "/v1") {
		c.DeriverHost = strings.TrimSuffix(c.DeriverHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete. It
// normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.DeriverHost == "" {
		return errors.New("ai config: DeriverHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.DeriverModel == "" {
		return errors.New("ai config: DeriverModel is required")
	}
	if c.VectorDim <= 0 {
		return errors.New("ai config: VectorDim must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("ai config: ChunkSize must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.New("ai config: ChunkOverlap must be non-negative and smaller than ChunkSize")
	}
	return nil
}
