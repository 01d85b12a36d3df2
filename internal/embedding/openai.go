package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint through langchaingo.
// Local servers that ignore authentication work with an empty APIKey as long as BaseURL is set.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// OpenAIOptions configures NewOpenAIEmbedder.
type OpenAIOptions struct {
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// NewOpenAIEmbedder builds a langchaingo embedder for opts.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" && opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: openai provider needs api_key or base_url", ErrNotConfigured)
	}
	token := opts.APIKey
	if token == "" {
		token = "none"
	}
	clientOpts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	return &OpenAIEmbedder{embedder: emb, dimensions: opts.Dimensions}, nil
}

// Embed returns the embedding of one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapProvider(err)
	}
	return vec, nil
}

// EmbedBatch embeds texts in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, wrapProvider(err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProvider, len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
