package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
)

// DefaultBucket is the primary category assigned to terms created on the fly
// for verbatim keywords with no taxonomy match and no stage-suggested category.
const DefaultBucket = "Uncategorized"

// Normalizer resolves raw extracted keywords against the canonical taxonomy.
//
// Resolution order for each verbatim term: exact case-insensitive match on
// the term name, then on the synonym table. Unmatched terms are never
// dropped: they are accepted verbatim and, when auto-create is enabled,
// inserted as new canonical terms.
type Normalizer struct {
	terms      storage.TaxonomyRepository
	autoCreate bool
	logger     *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithAutoCreate controls whether unmatched verbatim terms are inserted as
// new taxonomy terms. Default is true (find-or-create semantics).
func WithAutoCreate(enabled bool) Option {
	return func(n *Normalizer) error {
		n.autoCreate = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// NewNormalizer creates a new keyword normalizer.
func NewNormalizer(terms storage.TaxonomyRepository, opts ...Option) (*Normalizer, error) {
	if terms == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}

	n := &Normalizer{
		terms:      terms,
		autoCreate: true,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// Normalize resolves each mapping to its canonical term and returns the
// resolved mappings together with the derived keyword and category lists.
//
// Keywords are ordered by descending relevance with ties broken by
// first-seen order; duplicate canonical terms keep the first occurrence.
// Categories are the deduplicated primary categories in first-appearance
// order. Identical input always yields identical output.
func (n *Normalizer) Normalize(ctx context.Context, mappings []core.KeywordMapping) ([]core.KeywordMapping, []string, []string, error) {
	resolved := make([]core.KeywordMapping, len(mappings))
	copy(resolved, mappings)

	// Stable: ties keep first-seen order
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Relevance > resolved[j].Relevance
	})

	for i := range resolved {
		if err := n.resolve(ctx, &resolved[i]); err != nil {
			return nil, nil, nil, err
		}
	}

	keywords := make([]string, 0, len(resolved))
	categories := make([]string, 0, len(resolved))
	seenKeywords := make(map[string]bool, len(resolved))
	seenCategories := make(map[string]bool, len(resolved))

	for _, m := range resolved {
		kw := strings.ToLower(m.Canonical)
		if !seenKeywords[kw] {
			seenKeywords[kw] = true
			keywords = append(keywords, m.Canonical)
		}
		if m.Category != "" && !seenCategories[m.Category] {
			seenCategories[m.Category] = true
			categories = append(categories, m.Category)
		}
	}

	return resolved, keywords, categories, nil
}

// resolve fills in the canonical term and primary category for one mapping.
func (n *Normalizer) resolve(ctx context.Context, m *core.KeywordMapping) error {
	verbatim := strings.TrimSpace(m.Verbatim)
	if verbatim == "" {
		m.Canonical = m.Verbatim
		return nil
	}

	term, err := n.terms.FindTermByName(ctx, verbatim)
	if err != nil && errors.Is(err, storage.ErrNotFound) {
		term, err = n.terms.FindTermBySynonym(ctx, verbatim)
	}
	if err == nil {
		m.Canonical = term.Term
		m.Category = term.PrimaryCategory
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	// No match: accept the term verbatim
	category := m.Category
	if category == "" {
		category = DefaultBucket
	}

	if !n.autoCreate {
		m.Canonical = verbatim
		m.Category = category
		return nil
	}

	created, err := n.terms.GetOrCreateTerm(ctx, verbatim, category, "")
	if err != nil {
		return err
	}

	n.logger.Debug("created taxonomy term for unmatched keyword",
		"term", created.Term, "category", created.PrimaryCategory)

	m.Canonical = created.Term
	m.Category = created.PrimaryCategory
	return nil
}
