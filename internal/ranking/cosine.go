package ranking

import (
	"fmt"
	"math"

	"github.com/spigell/job-recommender/internal/embedding"
)

const epsilon = 1e-10

// Cosine returns the cosine of the angle between a and b. A zero vector scores
// approximately zero. Vectors of different length are a programming error and panic.
func Cosine(a, b embedding.Vector) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("ranking: cosine of vectors with different dimensions %d and %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}
