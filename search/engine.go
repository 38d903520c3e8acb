package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/hustings/canvass/ai"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
)

// DefaultPageSize is the number of hits per page when the request leaves
// PageSize unset.
const DefaultPageSize = 20

// Request describes one search over completed documents.
// All filters are conjunctive. Page numbering is zero-indexed.
type Request struct {
	// Query is free text matched case-insensitively against the filename
	// and the searchable-content digest. When non-empty, vector ranking
	// reorders the matches by semantic similarity.
	Query string

	// Vector is an optional precomputed query embedding. When set it is
	// used for ranking as-is and the query text is not embedded.
	Vector []float32

	// Category keeps only documents carrying this primary category.
	Category string

	// Subcategory keeps only documents whose keywords include a taxonomy
	// term filed under this subcategory.
	Subcategory string

	Page     int
	PageSize int
}

// Hit is one search result. Score is set only when vector ranking applied
// to this document; text-only matches carry a nil score.
type Hit struct {
	Document *core.Document
	Score    *float32
}

// Facet is a category bucket with its document count.
type Facet struct {
	Category string
	Count    int
}

// Response is a page of search results plus the facet counts for the full
// (unpaginated) match set.
type Response struct {
	Hits       []Hit
	TotalCount int
	Page       int
	PageSize   int
	Facets     []Facet
}

// Engine answers faceted, paginated searches over completed documents,
// with optional semantic reordering of text matches.
type Engine struct {
	docs      storage.DocumentRepository
	terms     storage.TaxonomyRepository
	embedder  ai.Embedder
	threshold float32
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithThreshold overrides the minimum similarity for vector ranking.
// Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(e *Engine) error {
		e.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine.
func NewEngine(
	docs storage.DocumentRepository,
	terms storage.TaxonomyRepository,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if terms == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		docs:      docs,
		terms:     terms,
		embedder:  provider.Embedder(),
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Search runs the request and returns one page of results.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	return e.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs the request with observation hooks.
//
// Only completed documents are searchable. Matches are ordered by semantic
// similarity to the query when embeddings are available, falling back to
// newest-first. Facet counts reflect the text-matched set before the
// category filter, so the facet list shows where narrowing is possible.
func (e *Engine) SearchWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(req)

	completed, err := e.docs.ListDocumentsByStatus(ctx, core.StatusCompleted)
	if err != nil {
		e.logger.Error("error listing completed documents", "err", err)
		return nil, err
	}
	monitor.AfterStatusFilter(len(completed))

	matched := filterByQuery(completed, req.Query)
	monitor.AfterTextFilter(documentIds(matched))

	facets := buildFacets(matched)
	monitor.AfterFacets(facets)

	if req.Subcategory != "" {
		matched, err = e.filterBySubcategory(ctx, matched, req.Subcategory)
		if err != nil {
			return nil, err
		}
	}
	if req.Category != "" {
		matched = filterByCategory(matched, req.Category)
	}

	ordered := e.order(ctx, matched, req.Query, req.Vector)
	monitor.AfterRank(ordered)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := req.Page
	if page < 0 {
		page = 0
	}

	resp := &Response{
		TotalCount: len(ordered),
		Page:       page,
		PageSize:   pageSize,
		Facets:     facets,
		Hits:       paginate(ordered, page, pageSize),
	}
	monitor.Finish(resp)

	return resp, nil
}

// order arranges the matched documents for presentation. With a non-empty
// query and a working embedder, documents at or above the similarity
// threshold come first by descending score; everything else keeps its
// newest-first order with no score. An embedding failure degrades to
// text-only ordering rather than failing the search.
func (e *Engine) order(ctx context.Context, docs []*core.Document, query string, queryVector []float32) []Hit {
	if len(docs) == 0 || (query == "" && len(queryVector) == 0) {
		return textHits(docs)
	}

	if len(queryVector) == 0 {
		var err error
		queryVector, err = e.embedder.EmbedText(ctx, query)
		if err != nil {
			e.logger.Warn("query embedding failed, using text order", "err", err)
			return textHits(docs)
		}
	}

	ranked := RankBySimilarity(queryVector, docs, e.threshold)
	rankedSet := make(map[core.ID]bool, len(ranked))
	hits := make([]Hit, 0, len(docs))
	for _, r := range ranked {
		score := r.Score
		rankedSet[r.Document.Id] = true
		hits = append(hits, Hit{Document: r.Document, Score: &score})
	}
	for _, doc := range docs {
		if !rankedSet[doc.Id] {
			hits = append(hits, Hit{Document: doc})
		}
	}

	return hits
}

// filterBySubcategory keeps documents whose keywords include any taxonomy
// term filed under the subcategory.
func (e *Engine) filterBySubcategory(ctx context.Context, docs []*core.Document, subcategory string) ([]*core.Document, error) {
	terms, err := e.terms.ListTermsBySubcategory(ctx, subcategory)
	if err != nil {
		e.logger.Error("error listing subcategory terms", "subcategory", subcategory, "err", err)
		return nil, err
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[strings.ToLower(t.Term)] = true
	}

	kept := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		for _, kw := range doc.Keywords {
			if termSet[strings.ToLower(kw)] {
				kept = append(kept, doc)
				break
			}
		}
	}
	return kept, nil
}

func filterByQuery(docs []*core.Document, query string) []*core.Document {
	if query == "" {
		return docs
	}
	needle := strings.ToLower(query)
	matched := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Filename), needle) ||
			strings.Contains(strings.ToLower(doc.SearchText), needle) {
			matched = append(matched, doc)
		}
	}
	return matched
}

func filterByCategory(docs []*core.Document, category string) []*core.Document {
	kept := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		for _, c := range doc.Categories {
			if strings.EqualFold(c, category) {
				kept = append(kept, doc)
				break
			}
		}
	}
	return kept
}

func textHits(docs []*core.Document) []Hit {
	hits := make([]Hit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, Hit{Document: doc})
	}
	return hits
}

func paginate(hits []Hit, page, pageSize int) []Hit {
	start := page * pageSize
	if start >= len(hits) {
		return []Hit{}
	}
	end := start + pageSize
	if end > len(hits) {
		end = len(hits)
	}
	return hits[start:end]
}

// buildFacets counts documents per primary category across the match set.
// A document appears in every category it carries. Buckets are sorted by
// name so the facet list is stable across identical searches.
func buildFacets(docs []*core.Document) []Facet {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, c := range doc.Categories {
			counts[c]++
		}
	}

	facets := make([]Facet, 0, len(counts))
	for category, count := range counts {
		facets = append(facets, Facet{Category: category, Count: count})
	}
	sort.Slice(facets, func(i, j int) bool {
		return facets[i].Category < facets[j].Category
	})
	return facets
}

func documentIds(docs []*core.Document) []core.ID {
	ids := make([]core.ID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.Id)
	}
	return ids
}
