package openai

import (
	"log/slog"

	"github.com/hustings/canvass/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages analyzer and embedder instances.
type Provider struct {
	config   *ai.Config
	analyzer *Analyzer
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := newAnalyzer(config)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		analyzer: analyzer,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Analyzer returns the structured-analysis service.
func (p *Provider) Analyzer() ai.Analyzer {
	return p.analyzer
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
