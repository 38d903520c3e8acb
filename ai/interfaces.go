package ai

import "context"

// Analyzer runs one structured-analysis call against an AI model.
// The model is treated as an opaque, possibly-slow, possibly-unreliable
// capability; retry and timeout policy belong to the caller.
// Implementations must be thread-safe for concurrent use.
type Analyzer interface {
	// Analyze sends the prompts to the model and returns the raw JSON
	// object it produced, with markdown fences and common formatting
	// defects already stripped. The caller validates the payload against
	// its expected schema.
	Analyze(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice is in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Analyzer and Embedder instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Analyzer returns the structured-analysis service.
	// The returned Analyzer is safe for concurrent use.
	Analyzer() Analyzer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
