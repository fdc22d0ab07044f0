package recommend

import (
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity computes the normalized dot product of two equal-length
// vectors, in [-1, 1]. Zero-norm vectors compare as 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
