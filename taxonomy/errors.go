package taxonomy

import "errors"

var (
	// ErrTaxonomyRepositoryRequired is returned when a taxonomy repository is not provided.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository required")

	// ErrImportFailed is returned when a bulk import cannot read its source.
	ErrImportFailed = errors.New("taxonomy import failed")
)
