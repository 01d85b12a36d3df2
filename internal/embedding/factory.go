package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the configured provider and wraps it in a Client.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var provider Embedder
	switch cfg.Provider {
	case "mock", "":
		provider = NewMockEmbedder(cfg.Dimensions)
	case "openai":
		p, err := NewOpenAIEmbedder(OpenAIOptions{
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		provider = p
	case "onnx":
		p, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}

	logger.Info("embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Int("cache_size", cfg.CacheSize))

	return NewClient(provider, cfg.Dimensions,
		WithLogger(logger),
		WithCacheSize(cfg.CacheSize),
		WithRateLimit(cfg.RequestsPerSecond),
		WithTimeout(cfg.Timeout),
	), nil
}
