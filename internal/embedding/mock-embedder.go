package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/kotae/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. The
// same text always gets the same unit-length vector.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed derives a vector from the hashes of the text's words, so texts that
// share words end up closer than unrelated ones.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	words := SplitWords(text)
	if len(words) == 0 {
		words = []string{text}
	}
	for _, w := range words {
		h := HashString(w)
		for i := 0; i < e.dimensions; i++ {
			emb[i] += float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
