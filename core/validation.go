package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - Status must be a known value
//   - Progress must be within 0-100
//   - Progress is 100 iff the status is completed
//   - Error is non-empty iff the status is failed
//
// NOT validated (populated by the pipeline):
//   - Analysis, Keywords, Categories, Vector, SearchText
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Progress < 0 || doc.Progress > 100 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidDocument, ErrInvalidProgress, doc.Progress)
	}

	if (doc.Progress == 100) != (doc.Status == StatusCompleted) {
		return fmt.Errorf("%w: %w: progress %d with status %s",
			ErrInvalidDocument, ErrInvalidProgress, doc.Progress, doc.Status)
	}

	if (doc.Error != "") != (doc.Status == StatusFailed) {
		return fmt.Errorf("%w: %w: status %s", ErrInvalidDocument, ErrInconsistentError, doc.Status)
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a known value.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ValidateTerm validates a TaxonomyTerm according to domain rules.
//
// Validation rules:
//   - Term must not be empty
//   - PrimaryCategory must not be empty
//   - ParentId must not reference the term itself
func ValidateTerm(term *TaxonomyTerm) error {
	if term == nil {
		return fmt.Errorf("%w: term is nil", ErrInvalidTerm)
	}

	if term.Term == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrEmptyTermName)
	}

	if term.PrimaryCategory == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrEmptyCategory)
	}

	if term.ParentId != 0 && term.ParentId == term.Id {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrTermSelfParent)
	}

	return nil
}
