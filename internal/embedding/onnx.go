//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/kotae/pkg/utils"
)

// ONNXEmbedder runs a sentence-embedding model locally through ONNX Runtime.
// It requires CGO and the onnxruntime shared library. Inference is serialized
// because the session reuses one set of tensors.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXEmbedder loads the model at modelPath. InitializeEnvironment is called if not already done.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: onnx provider needs model_path", ErrNotConfigured)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnx runtime: %w", ErrNotConfigured, err)
		}
	}

	e := &ONNXEmbedder{dimensions: dimensions, maxTokens: maxTokens, tokenizer: &SimpleTokenizer{}}
	ids, mask, types := e.tokenizer.Tokenize("", maxTokens)
	shape := ort.NewShape(1, int64(maxTokens))

	var err error
	if e.inputIDs, err = ort.NewTensor(shape, ids); err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	if e.attentionMask, err = ort.NewTensor(shape, mask); err != nil {
		e.destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	if e.tokenTypeIDs, err = ort.NewTensor(shape, types); err != nil {
		e.destroy()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	if e.output, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions)); err != nil {
		e.destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask, e.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		e.destroy()
		return nil, fmt.Errorf("%w: create onnx session: %w", ErrNotConfigured, err)
	}
	return e, nil
}

// Embed runs one inference and returns the L2-normalized output.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)
	copy(e.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, wrapProvider(fmt.Errorf("inference failed: %w", err))
	}

	vec := make([]float32, e.dimensions)
	copy(vec, e.output.GetData())
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.destroy()
	return err
}

func (e *ONNXEmbedder) destroy() {
	if e.inputIDs != nil {
		_ = e.inputIDs.Destroy()
		e.inputIDs = nil
	}
	if e.attentionMask != nil {
		_ = e.attentionMask.Destroy()
		e.attentionMask = nil
	}
	if e.tokenTypeIDs != nil {
		_ = e.tokenTypeIDs.Destroy()
		e.tokenTypeIDs = nil
	}
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
}
