package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical content
// (a filename, a taxonomy term tuple) always produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus describes where a document is in the analysis lifecycle.
type DocumentStatus int

const (
	// StatusPending means the document is ingested but not yet analyzed.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means an analysis pipeline currently owns the document.
	StatusProcessing
	// StatusCompleted means all analysis stages finished successfully.
	StatusCompleted
	// StatusFailed means a stage failed after exhausting retries, or the
	// pipeline was cancelled.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Document is a unit of campaign material moving through the analysis pipeline.
// It is created at ingestion with StatusPending, mutated exclusively by the
// pipeline while processing, and read-only afterwards except for reprocessing.
type Document struct {
	Id          ID
	Filename    string // unique across the archive
	StorageRef  string // opaque reference owned by the storage collaborator
	Status      DocumentStatus
	Progress    int // 0-100, monotonically non-decreasing while processing
	Text        string
	Analysis    AnalysisRecord
	Keywords    []string // normalized canonical terms, relevance-ordered
	Categories  []string // deduplicated primary categories, first-appearance order
	Vector      []float32
	SearchText  string // precomputed searchable-content digest
	Error       string // last failure reason, non-empty iff StatusFailed
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt time.Time // set when the document reaches StatusCompleted
}

// DocumentIDFromFilename derives the content-based ID for a document.
// Filenames are unique, so the ID is too.
func DocumentIDFromFilename(filename string) ID {
	return IDFromContent("doc:" + filename)
}

// TaxonomyTerm is a canonical vocabulary entry. Terms form a hierarchy via
// ParentId; children are a derived index held by the store, never a
// back-pointer on the term itself.
type TaxonomyTerm struct {
	Id              ID
	Term            string
	PrimaryCategory string
	Subcategory     string
	ParentId        ID // 0 means no parent
	InsertedAt      time.Time
	UpdatedAt       time.Time
}

// TermIDFromName derives the content-based ID for a taxonomy term.
// The term string is lowercased first, so concurrent find-or-create of the
// same term (in any casing) converges on a single ID.
func TermIDFromName(term string) ID {
	return IDFromContent("term:" + strings.ToLower(term))
}

// TaxonomySynonym links an alternative spelling to its canonical term.
// The link is a weak reference by ID, not ownership.
type TaxonomySynonym struct {
	Id         ID
	Synonym    string
	TermId     ID
	InsertedAt time.Time
}

// SynonymIDFromName derives the content-based ID for a synonym entry.
func SynonymIDFromName(synonym string) ID {
	return IDFromContent("syn:" + strings.ToLower(synonym))
}

// SearchResult pairs a document with a relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}
