package embedding

import (
	"context"
	"math"
)

// HashEmbedder is a deterministic, dependency-free embedder. It derives a
// fixed-dimension unit vector from a hash of the text, so the same text always
// gets the same embedding. It is the explicit fallback when no ONNX model is
// available, and the embedder of choice in tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hash embedder producing vectors of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := HashString(text)
	vec := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		vec[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// A zero vector is left unchanged.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
