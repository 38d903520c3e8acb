package mock

import "github.com/hustings/canvass/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock analyzer and embedder instances.
type MockProvider struct {
	analyzer *MockAnalyzer
	embedder *MockEmbedder
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockAnalyzer()/GetMockEmbedder() to access concrete types for test
// assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		analyzer: NewMockAnalyzer(),
		embedder: NewMockEmbedder(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(analyzer *MockAnalyzer, embedder *MockEmbedder) ai.Provider {
	return &MockProvider{
		analyzer: analyzer,
		embedder: embedder,
	}
}

// Analyzer returns the mock analyzer.
func (p *MockProvider) Analyzer() ai.Analyzer {
	return p.analyzer
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockAnalyzer returns the underlying mock analyzer for test assertions.
func (p *MockProvider) GetMockAnalyzer() *MockAnalyzer {
	return p.analyzer
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
