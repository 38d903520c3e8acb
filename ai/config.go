package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// AnalysisHost is the base URL for the analysis service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	AnalysisHost string

	// EmbeddingHost is the base URL for the embedding service API.
	EmbeddingHost string

	// AnalysisModel is the model identifier to use for document analysis.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	AnalysisModel string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAnalysisHost sets the analysis service host URL.
func WithAnalysisHost(host string) ConfigOption {
	return func(c *Config) {
		c.AnalysisHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both analysis and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.AnalysisHost = host
		c.EmbeddingHost = host
	}
}

// WithAnalysisModel sets the analysis model identifier.
func WithAnalysisModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnalysisModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. Both services use the same host by default.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		AnalysisHost:   defaultHost,
		EmbeddingHost:  defaultHost,
		AnalysisModel:  "qwen2.5:3b",
		EmbeddingModel: "embeddinggemma",
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.AnalysisHost != "" && !strings.HasSuffix(c.AnalysisHost, "/v1") {
		c.AnalysisHost = strings.TrimSuffix(c.AnalysisHost, "/") + "/v1"
	}
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.AnalysisHost == "" {
		return errors.New("ai config: AnalysisHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.AnalysisModel == "" {
		return errors.New("ai config: AnalysisModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	return nil
}
