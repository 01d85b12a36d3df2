// Package embedding turns record and query text into dense vectors. Providers
// (OpenAI-compatible HTTP, local ONNX, deterministic mock) sit behind the
// Embedder interface and are wrapped by Client for caching, rate limiting,
// timeouts and dimension checks.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrProvider is the root of every embedding failure.
var ErrProvider = errors.New("embedding provider error")

var (
	// ErrNotConfigured means the selected provider is missing required settings
	// or is unavailable in this build.
	ErrNotConfigured = fmt.Errorf("%w: provider not configured", ErrProvider)
	// ErrTimeout means the provider call exceeded embedding.timeout.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrProvider)
	// ErrDimensionMismatch means the provider returned a vector of the wrong length.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrProvider)
	// ErrMalformed means the provider returned a vector with NaN or infinite components.
	ErrMalformed = fmt.Errorf("%w: malformed vector", ErrProvider)
)

// wrapProvider tags err as a provider failure unless it already is one.
func wrapProvider(err error) error {
	if err == nil || errors.Is(err, ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}
