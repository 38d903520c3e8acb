package search

import (
	"math"
	"sort"

	"github.com/hustings/canvass/core"
)

// DefaultThreshold is the minimum cosine similarity for a document to count
// as a ranked match.
const DefaultThreshold float32 = 0.7

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when the vectors differ in length or either has zero magnitude,
// so degenerate embeddings never match anything.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// RankBySimilarity scores documents against the query vector and returns
// those at or above the threshold, ordered by descending score. Documents
// without a stored vector are skipped. The sort is stable, so equal scores
// keep their input order.
func RankBySimilarity(queryVector []float32, docs []*core.Document, threshold float32) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Vector) == 0 {
			continue
		}
		score := CosineSimilarity(queryVector, doc.Vector)
		if score < threshold {
			continue
		}
		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}
