package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrTaxonomyRepositoryRequired is returned when a taxonomy repository is not provided.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrProvider indicates the AI capability failed, timed out, or returned
	// unusable output. Retried up to the configured bound.
	ErrProvider = errors.New("provider failure")

	// ErrValidation indicates a stage output was missing required fields or
	// had wrong types. Treated like ErrProvider for retry purposes, never
	// silently coerced.
	ErrValidation = errors.New("stage output validation failed")

	// ErrCancelled indicates processing was cancelled by an operator request.
	ErrCancelled = errors.New("cancelled")

	// ErrAlreadyProcessing indicates another pipeline invocation currently
	// owns the document.
	ErrAlreadyProcessing = errors.New("document already being processed")

	// ErrNotProcessing indicates a cancellation request for a document with
	// no in-flight pipeline invocation.
	ErrNotProcessing = errors.New("document is not being processed")

	// ErrReprocessCompleted indicates a reprocess request for a completed
	// document without the force flag.
	ErrReprocessCompleted = errors.New("completed document requires force to reprocess")
)

// StageError attaches the failing stage name to an underlying error.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
