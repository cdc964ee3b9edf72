// Package similarity provides the vector and scalar closeness functions used by scorers.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/matchmaker/internal/domain"
)

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// A zero-norm input yields 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine %d vs %d: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// GaussianCloseness maps the distance between a and b to (0,1]:
// exp(-((|a-b|/scale)^2)). Equal values give 1.
func GaussianCloseness(a, b, scale float64) float64 {
	d := math.Abs(a-b) / scale
	return math.Exp(-(d * d))
}

// Normalize returns v scaled to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// MeanPool averages vectors element-wise. All vectors must share one length.
func MeanPool(vs [][]float32) ([]float32, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	dim := len(vs[0])
	acc := make([]float64, dim)
	for i, v := range vs {
		if len(v) != dim {
			return nil, fmt.Errorf("mean pool [%d] %d vs %d: %w", i, len(v), dim, domain.ErrVectorDimMismatch)
		}
		for j, x := range v {
			acc[j] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vs))
	for j, s := range acc {
		out[j] = float32(s / n)
	}
	return out, nil
}

// Clamp01 bounds x to [0,1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	return clamp01(x)
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
