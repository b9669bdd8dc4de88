package search

import "math"

// cosineSimilarity computes dot(a,b) / (|a| * |b|). A zero-length or
// zero-norm vector yields 0 rather than a division error. Vectors of unequal
// length also score 0: a dimension mismatch means the query and snapshot were
// embedded by different models and any partial comparison is meaningless.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
