package search

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrTaxonomyRepositoryRequired is returned when a taxonomy repository is not provided.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
