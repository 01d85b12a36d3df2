package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Client wraps a provider with an LRU cache, an optional rate limit, a per-call
// timeout and a dimension check. It is what the rest of the system embeds through.
type Client struct {
	provider   Embedder
	dimensions int
	cache      *EmbeddingCache
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize enables an LRU cache of the given size. Zero disables caching.
func WithCacheSize(size int) ClientOption {
	return func(c *Client) { c.cache = NewEmbeddingCache(size) }
}

// WithRateLimit limits provider calls to rps per second. Zero means unlimited.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithTimeout bounds every provider call. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient wraps provider. dimensions is the length every returned vector must have.
func NewClient(provider Embedder, dimensions int, opts ...ClientOption) *Client {
	c := &Client{
		provider:   provider,
		dimensions: dimensions,
		cache:      NewEmbeddingCache(0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the embedding for text, using the cache when available.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		metrics.EmbeddingCacheHits.Inc()
		return vec, nil
	}

	var vec []float32
	err := c.call(ctx, func(callCtx context.Context) error {
		var err error
		vec, err = c.provider.Embed(callCtx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := c.checkVector(vec); err != nil {
		return nil, err
	}
	c.cache.Set(text, vec)
	return vec, nil
}

// EmbedBatch embeds texts, sending only cache misses to the provider.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			metrics.EmbeddingCacheHits.Inc()
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	var vecs [][]float32
	err := c.call(ctx, func(callCtx context.Context) error {
		var err error
		vecs, err = c.provider.EmbedBatch(callCtx, missTexts)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProvider, len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		if err := c.checkVector(vec); err != nil {
			return nil, err
		}
		c.cache.Set(missTexts[j], vec)
		out[missIdx[j]] = vec
	}
	return out, nil
}

// Dimensions returns the expected embedding dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close closes the underlying provider.
func (c *Client) Close() error {
	return c.provider.Close()
}

func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.classify(ctx, err)
		}
	}
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(callCtx)
	if err == nil && callCtx.Err() == context.DeadlineExceeded {
		err = callCtx.Err()
	}
	metrics.ObserveEmbedding(start, err)
	if err != nil {
		err = c.classify(callCtx, err)
		c.logger.Warn("embedding call failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return wrapProvider(err)
}

func (c *Client) checkVector(vec []float32) error {
	if c.dimensions > 0 && len(vec) != c.dimensions {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dimensions, len(vec))
	}
	if !utils.AllFinite(vec) {
		return ErrMalformed
	}
	return nil
}
