package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/lexical"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

var tracer = otel.Tracer("kotae.search")

// Ranker reorders fused results using caller context.
type Ranker interface {
	Rank(results []models.HybridResult, query string, rc models.RankContext) []models.HybridResult
}

// Engine runs hybrid (lexical + vector) search.
type Engine struct {
	lexical  lexical.Searcher
	embedder embedding.Embedder
	vectors  vector.Store
	ranker   Ranker
	config   *config.SearchConfig
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRanker enables contextual reranking for requests that carry a context.
func WithRanker(r Ranker) Option {
	return func(e *Engine) { e.ranker = r }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(lex lexical.Searcher, embedder embedding.Embedder, vectors vector.Store, cfg *config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{
		lexical:  lex,
		embedder: embedder,
		vectors:  vectors,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HybridSearch runs the lexical search and the embed-then-vector-search path
// concurrently, fuses the two batches, optionally reranks, then paginates.
// A side whose weight is 0 is not run. If one side fails the response is
// built from the other and marked Partial; if every side that ran fails the
// joined error is returned.
func (e *Engine) HybridSearch(ctx context.Context, req *models.SearchRequest) (resp *models.SearchResponse, err error) {
	startTime := time.Now()
	ctx, span := tracer.Start(ctx, "Engine.HybridSearch")
	defer func() {
		label := metrics.Result(err)
		if err == nil && resp.Partial {
			label = "partial"
		}
		metrics.SearchesTotal.WithLabelValues(label).Inc()
		metrics.SearchDuration.Observe(time.Since(startTime).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ProcessQuery(req, e.config); err != nil {
		return nil, err
	}
	candidates := max(e.config.TopKCandidates, req.Offset+req.Limit)
	span.SetAttributes(
		attribute.Int("search.limit", req.Limit),
		attribute.Int("search.offset", req.Offset),
		attribute.Int("search.candidates", candidates),
		attribute.Float64("search.vector_weight", req.VectorWeight),
		attribute.Float64("search.text_weight", req.TextWeight),
	)

	var (
		lexicalResults []models.LexicalResult
		vectorResults  []models.VectorResult
		lexicalErr     error
		vectorErr      error
		ran            int
		wg             sync.WaitGroup
	)

	if req.TextWeight > 0 {
		ran++
		wg.Add(1)
		go func() {
			defer wg.Done()
			lexicalResults, lexicalErr = e.lexical.Search(ctx, req.Query, req.Filters, candidates)
			if lexicalErr != nil {
				lexicalErr = fmt.Errorf("lexical search failed: %w", lexicalErr)
			}
		}()
	}

	if req.VectorWeight > 0 {
		ran++
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = e.vectorSearch(ctx, req.Query, req.Filters, candidates)
		}()
	}

	wg.Wait()

	var warnings []string
	failed := 0
	for _, side := range []struct {
		name string
		err  error
	}{{"lexical", lexicalErr}, {"vector", vectorErr}} {
		if side.err == nil {
			continue
		}
		failed++
		metrics.SubsearchFailures.WithLabelValues(side.name).Inc()
		e.logger.Warn("sub-search failed", zap.String("side", side.name), zap.Error(side.err))
		warnings = append(warnings, side.err.Error())
	}
	if failed == ran {
		return nil, errors.Join(lexicalErr, vectorErr)
	}

	// Truncation happens after reranking, in Paginate.
	opts := req.HybridSearchOptions
	opts.Limit = 0
	fused := Fuse(lexicalResults, vectorResults, opts)
	if e.ranker != nil && !req.Context.IsZero() {
		fused = e.ranker.Rank(fused, req.Query, *req.Context)
	}

	page := Paginate(fused, req.Offset, req.Limit)
	resp = &models.SearchResponse{
		Results:   make([]models.HybridResult, len(page)),
		Total:     len(fused),
		Limit:     req.Limit,
		Offset:    req.Offset,
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     req.Query,
		Partial:   failed > 0,
		Warnings:  warnings,
	}
	copy(resp.Results, page)
	span.SetAttributes(attribute.Int("search.total", resp.Total))
	return resp, nil
}

func (e *Engine) vectorSearch(ctx context.Context, query string, filters *models.Filters, limit int) ([]models.VectorResult, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	var results []models.VectorResult
	if filters.IsZero() {
		results, err = e.vectors.Search(ctx, vec, limit)
	} else {
		results, err = e.vectors.SearchFiltered(ctx, vec, limit, filters.Match)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
