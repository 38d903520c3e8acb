package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustings/canvass/core"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-6, "self-similarity is 1")
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-6, "orthogonal vectors score 0")
	assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-6, "symmetric")

	// Magnitude does not matter, only direction
	scaled := []float32{10, 0, 0}
	assert.InDelta(t, 1.0, CosineSimilarity(a, scaled), 1e-6)

	opposite := []float32{-1, 0, 0}
	assert.InDelta(t, -1.0, CosineSimilarity(a, opposite), 1e-6)
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}), "length mismatch")
	assert.Zero(t, CosineSimilarity(nil, nil), "empty vectors")
	assert.Zero(t, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}), "zero magnitude")
}

func TestRankBySimilarity(t *testing.T) {
	docA := &core.Document{Filename: "a.pdf", Vector: []float32{1, 0}}
	docB := &core.Document{Filename: "b.pdf", Vector: []float32{0, 1}}
	docC := &core.Document{Filename: "c.pdf", Vector: []float32{0.9, 0.1}}
	docD := &core.Document{Filename: "d.pdf"} // no vector

	query := []float32{1, 0}
	results := RankBySimilarity(query, []*core.Document{docB, docC, docD, docA}, DefaultThreshold)

	// B falls below the threshold, D has no vector; A and C survive in
	// descending score order
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].Document.Filename)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "c.pdf", results[1].Document.Filename)
	assert.InDelta(t, 0.9938, results[1].Score, 1e-3)
}

func TestRankBySimilarityStable(t *testing.T) {
	// Identical vectors tie; input order decides
	docs := []*core.Document{
		{Filename: "first.pdf", Vector: []float32{1, 0}},
		{Filename: "second.pdf", Vector: []float32{1, 0}},
		{Filename: "third.pdf", Vector: []float32{1, 0}},
	}

	results := RankBySimilarity([]float32{1, 0}, docs, DefaultThreshold)
	require.Len(t, results, 3)
	assert.Equal(t, "first.pdf", results[0].Document.Filename)
	assert.Equal(t, "second.pdf", results[1].Document.Filename)
	assert.Equal(t, "third.pdf", results[2].Document.Filename)
}

func TestRankBySimilarityEmpty(t *testing.T) {
	results := RankBySimilarity([]float32{1, 0}, nil, DefaultThreshold)
	assert.Empty(t, results)
}
