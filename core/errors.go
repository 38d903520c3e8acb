package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTerm indicates a TaxonomyTerm failed validation.
	ErrInvalidTerm = errors.New("invalid taxonomy term")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidStatus indicates an unknown DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidProgress indicates Progress is outside 0-100 or inconsistent
	// with the document status.
	ErrInvalidProgress = errors.New("invalid processing progress")

	// ErrInconsistentError indicates the Error field does not match the
	// status: it must be non-empty iff the status is failed.
	ErrInconsistentError = errors.New("error field inconsistent with status")

	// ErrEmptyTermName indicates the term Name field is empty.
	ErrEmptyTermName = errors.New("term cannot be empty")

	// ErrEmptyCategory indicates the term has no primary category.
	ErrEmptyCategory = errors.New("primary category cannot be empty")

	// ErrTermSelfParent indicates a term references itself as parent.
	ErrTermSelfParent = errors.New("term cannot be its own parent")
)
