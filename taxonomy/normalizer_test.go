package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
	"github.com/hustings/canvass/storage/badger"
)

func setupNormalizer(t *testing.T, opts ...Option) (*Normalizer, storage.TaxonomyRepository) {
	docRepo, taxRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		taxRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	n, err := NewNormalizer(taxRepo, opts...)
	require.NoError(t, err)
	return n, taxRepo
}

func TestNewNormalizerRequiresRepository(t *testing.T) {
	_, err := NewNormalizer(nil)
	assert.ErrorIs(t, err, ErrTaxonomyRepositoryRequired)
}

func TestNormalizeExactMatch(t *testing.T) {
	n, taxRepo := setupNormalizer(t)
	ctx := context.Background()

	_, err := taxRepo.AddTerms(ctx, &core.TaxonomyTerm{
		Term:            "public safety",
		PrimaryCategory: "Crime",
	})
	require.NoError(t, err)

	resolved, keywords, categories, err := n.Normalize(ctx, []core.KeywordMapping{
		{Verbatim: "Public Safety", Category: "whatever", Relevance: 0.9},
	})
	require.NoError(t, err)

	require.Len(t, resolved, 1)
	assert.Equal(t, "public safety", resolved[0].Canonical)
	assert.Equal(t, "Crime", resolved[0].Category, "canonical category replaces stage suggestion")
	assert.Equal(t, []string{"public safety"}, keywords)
	assert.Equal(t, []string{"Crime"}, categories)
}

func TestNormalizeSynonymMatch(t *testing.T) {
	n, taxRepo := setupNormalizer(t)
	ctx := context.Background()

	added, err := taxRepo.AddTerms(ctx, &core.TaxonomyTerm{
		Term:            "public safety",
		PrimaryCategory: "Crime",
	})
	require.NoError(t, err)
	require.NoError(t, taxRepo.AddSynonyms(ctx, &core.TaxonomySynonym{
		Synonym: "safer streets",
		TermId:  added[0].Id,
	}))

	resolved, keywords, _, err := n.Normalize(ctx, []core.KeywordMapping{
		{Verbatim: "Safer Streets", Relevance: 0.8},
	})
	require.NoError(t, err)

	assert.Equal(t, "public safety", resolved[0].Canonical)
	assert.Equal(t, []string{"public safety"}, keywords)
}

func TestNormalizeUnmatchedCreatesTerm(t *testing.T) {
	n, taxRepo := setupNormalizer(t)
	ctx := context.Background()

	resolved, keywords, categories, err := n.Normalize(ctx, []core.KeywordMapping{
		{Verbatim: "rural broadband", Category: "Infrastructure", Relevance: 0.7},
		{Verbatim: "mystery topic", Relevance: 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, "rural broadband", resolved[0].Canonical)
	assert.Equal(t, "Infrastructure", resolved[0].Category)
	assert.Equal(t, DefaultBucket, resolved[1].Category, "no suggestion falls into the default bucket")
	assert.Equal(t, []string{"rural broadband", "mystery topic"}, keywords)
	assert.Equal(t, []string{"Infrastructure", DefaultBucket}, categories)

	// Both terms are now canonical
	created, err := taxRepo.FindTermByName(ctx, "rural broadband")
	require.NoError(t, err)
	assert.Equal(t, "Infrastructure", created.PrimaryCategory)

	created, err = taxRepo.FindTermByName(ctx, "mystery topic")
	require.NoError(t, err)
	assert.Equal(t, DefaultBucket, created.PrimaryCategory)
}

func TestNormalizeWithoutAutoCreate(t *testing.T) {
	n, taxRepo := setupNormalizer(t, WithAutoCreate(false))
	ctx := context.Background()

	resolved, _, _, err := n.Normalize(ctx, []core.KeywordMapping{
		{Verbatim: "rural broadband", Relevance: 0.7},
	})
	require.NoError(t, err)

	// Kept verbatim but never persisted
	assert.Equal(t, "rural broadband", resolved[0].Canonical)
	_, err = taxRepo.FindTermByName(ctx, "rural broadband")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNormalizeOrderingAndDeduplication(t *testing.T) {
	n, taxRepo := setupNormalizer(t)
	ctx := context.Background()

	added, err := taxRepo.AddTerms(ctx, &core.TaxonomyTerm{
		Term:            "education funding",
		PrimaryCategory: "Education",
	})
	require.NoError(t, err)
	require.NoError(t, taxRepo.AddSynonyms(ctx, &core.TaxonomySynonym{
		Synonym: "school funding",
		TermId:  added[0].Id,
	}))

	mappings := []core.KeywordMapping{
		{Verbatim: "school funding", Category: "x", Relevance: 0.4},
		{Verbatim: "job creation", Category: "Economy", Relevance: 0.9},
		{Verbatim: "Education Funding", Relevance: 0.6},
	}

	resolved, keywords, categories, err := n.Normalize(ctx, mappings)
	require.NoError(t, err)

	// Relevance-descending, and both education variants collapse to one keyword
	require.Len(t, resolved, 3)
	assert.Equal(t, "job creation", resolved[0].Canonical)
	assert.Equal(t, []string{"job creation", "education funding"}, keywords)
	assert.Equal(t, []string{"Economy", "Education"}, categories)

	// Identical input always yields identical output
	_, keywords2, categories2, err := n.Normalize(ctx, mappings)
	require.NoError(t, err)
	assert.Equal(t, keywords, keywords2)
	assert.Equal(t, categories, categories2)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n, _ := setupNormalizer(t)

	resolved, keywords, categories, err := n.Normalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Empty(t, keywords)
	assert.Empty(t, categories)
}
