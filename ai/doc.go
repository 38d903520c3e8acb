// Package ai provides abstractions for AI services used in Canvass.
//
// This package defines interfaces for AI operations: structured document
// analysis (Analyzer) and text embeddings (Embedder). It follows the
// dependency inversion principle, allowing the pipeline and search layers to
// depend on abstractions rather than concrete implementations.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in the implementation packages return the interface
// types to enforce abstraction; test utility constructors in ai/mock return
// concrete types to enable assertions and behavior injection.
package ai
