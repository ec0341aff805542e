// Package vector provides similarity helpers for embedding vectors.
package vector

import "math"

// Cosine returns the cosine similarity of two equal-dimensional vectors,
// bounded to [-1, 1]. Zero-magnitude or mismatched-length inputs score 0
// rather than producing NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := InnerProduct(a, b)
	na := L2Norm(a)
	nb := L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (na * nb)
	// Clamp float rounding so identical vectors score exactly 1.
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}
