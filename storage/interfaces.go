package storage

import (
	"context"
	"time"

	"github.com/hustings/canvass/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives the ID from the filename.
	// Sets CreatedAt/UpdatedAt timestamps if not already set.
	// Returns ErrDuplicateKey if a document with the same filename exists.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments replaces existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocumentStatus applies a partial update of status, progress, and
	// error reason without rewriting the rest of the record.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, progress int, errMsg string) error

	// DeleteDocuments removes documents by their IDs, including indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByFilename retrieves a document by its unique filename.
	// Returns ErrNotFound if no such document exists.
	GetDocumentByFilename(ctx context.Context, filename string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocumentsByStatus retrieves all documents with the given status,
	// ordered by creation time descending.
	ListDocumentsByStatus(ctx context.Context, status core.DocumentStatus) ([]*core.Document, error)

	// ListStaleProcessing retrieves documents that have been in the
	// processing state with no update since the cutoff, ordered by last
	// update ascending (most stale first).
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]*core.Document, error)

	// ListRecentDocuments retrieves up to limit documents ordered by
	// creation time descending.
	ListRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error)
}

// TaxonomyRepository provides operations for managing the canonical vocabulary.
type TaxonomyRepository interface {
	Repository

	// AddTerms adds one or more taxonomy terms to storage.
	// Uses content-based IDs (TermIDFromName of the lowercased term).
	// Sets InsertedAt timestamps if not already set.
	// Returns ErrDuplicateKey if a term with the same ID already exists.
	AddTerms(ctx context.Context, terms ...*core.TaxonomyTerm) ([]*core.TaxonomyTerm, error)

	// GetTerm retrieves a single term by ID.
	// Returns ErrNotFound if the term doesn't exist.
	GetTerm(ctx context.Context, id core.ID) (*core.TaxonomyTerm, error)

	// FindTermByName finds a term by its name, case-insensitively.
	// Returns ErrNotFound if no matching term exists.
	FindTermByName(ctx context.Context, term string) (*core.TaxonomyTerm, error)

	// FindTermBySynonym resolves a synonym string (case-insensitively) to its
	// owning canonical term.
	// Returns ErrNotFound if no matching synonym exists.
	FindTermBySynonym(ctx context.Context, synonym string) (*core.TaxonomyTerm, error)

	// AddSynonyms adds synonym links. Duplicate synonyms are skipped.
	AddSynonyms(ctx context.Context, synonyms ...*core.TaxonomySynonym) error

	// GetOrCreateTerm finds or creates a term by name.
	// If a term with the same (case-insensitive) name exists, returns it
	// unchanged; the provided category and subcategory apply only on create.
	// Thread-safe: concurrent creation attempts converge on one record.
	GetOrCreateTerm(ctx context.Context, term, primaryCategory, subcategory string) (*core.TaxonomyTerm, error)

	// ListTerms retrieves all taxonomy terms.
	ListTerms(ctx context.Context) ([]*core.TaxonomyTerm, error)

	// ListTermsBySubcategory retrieves all terms with the given subcategory,
	// case-insensitively.
	ListTermsBySubcategory(ctx context.Context, subcategory string) ([]*core.TaxonomyTerm, error)

	// ListChildTerms retrieves the terms whose parent is the given term.
	// Children are a derived index, not a field on the parent.
	ListChildTerms(ctx context.Context, parentID core.ID) ([]*core.TaxonomyTerm, error)
}
