//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"
)

// ONNXEmbedder stub type when built without CGO (see onnx.go for real implementation).
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails without CGO.
func NewONNXEmbedder(_ string, _, _ int) (*ONNXEmbedder, error) {
	return nil, fmt.Errorf("%w: onnx embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime", ErrNotConfigured)
}

// Embed always fails without CGO.
func (e *ONNXEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotConfigured
}

// EmbedBatch always fails without CGO.
func (e *ONNXEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNotConfigured
}

// Dimensions returns 0.
func (e *ONNXEmbedder) Dimensions() int {
	return 0
}

// Close is a no-op.
func (e *ONNXEmbedder) Close() error {
	return nil
}
