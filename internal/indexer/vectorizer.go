package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// ErrSourceNotFound is returned when the record to vectorize does not exist.
var ErrSourceNotFound = errors.New("source record not found")

var tracer = otel.Tracer("kotae.indexer")

// RecordSource is the read side of the record store the vectorizer needs.
type RecordSource interface {
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	ListByType(ctx context.Context, t models.RecordType, offset, limit int) ([]*models.Record, error)
	Types(ctx context.Context) ([]models.RecordType, error)
}

// ReindexReport summarizes a full reindex.
type ReindexReport struct {
	Total     int                       `json:"total"`
	Succeeded int                       `json:"succeeded"`
	Failed    int                       `json:"failed"`
	ByType    map[models.RecordType]int `json:"by_type"`
	Duration  time.Duration             `json:"duration_ns"`
}

// Vectorizer keeps the vector store in sync with the record store.
type Vectorizer struct {
	records     RecordSource
	embedder    embedding.Embedder
	store       vector.Store
	concurrency int
	pageSize    int
	logger      *zap.Logger
}

// VectorizerOption configures a Vectorizer.
type VectorizerOption func(*Vectorizer)

// WithVectorizerLogger sets the logger.
func WithVectorizerLogger(l *zap.Logger) VectorizerOption {
	return func(v *Vectorizer) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithConcurrency bounds the number of records embedded at once during ReindexAll.
func WithConcurrency(n int) VectorizerOption {
	return func(v *Vectorizer) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithPageSize sets how many records ReindexAll reads per page.
func WithPageSize(n int) VectorizerOption {
	return func(v *Vectorizer) {
		if n > 0 {
			v.pageSize = n
		}
	}
}

// NewVectorizer creates a vectorizer.
func NewVectorizer(records RecordSource, embedder embedding.Embedder, store vector.Store, opts ...VectorizerOption) *Vectorizer {
	v := &Vectorizer{
		records:     records,
		embedder:    embedder,
		store:       store,
		concurrency: 4,
		pageSize:    100,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Vectorize loads one record, embeds its text and upserts the vector. An
// empty recordType matches any stored type. Embedding errors are returned
// unchanged so callers can test them with errors.Is.
func (v *Vectorizer) Vectorize(ctx context.Context, recordType models.RecordType, id string) error {
	ctx, span := tracer.Start(ctx, "Vectorizer.Vectorize", trace.WithAttributes(
		attribute.String("record.id", id),
		attribute.String("record.type", string(recordType)),
	))
	defer span.End()

	r, err := v.records.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %w", ErrSourceNotFound, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if recordType != "" && r.Type != recordType {
		err := fmt.Errorf("%w: %s %s is stored as %s", ErrSourceNotFound, recordType, id, r.Type)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := v.vectorizeRecord(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (v *Vectorizer) vectorizeRecord(ctx context.Context, r *models.Record) (err error) {
	defer func() { metrics.VectorizeTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	vec, err := v.embedder.Embed(ctx, EmbeddingText(r))
	if err != nil {
		return err
	}
	if err := v.store.Upsert(ctx, r.ID, vec, r.Metadata()); err != nil {
		return fmt.Errorf("upsert vector %s: %w", r.ID, err)
	}
	v.logger.Debug("record vectorized", zap.String("id", r.ID), zap.String("type", string(r.Type)))
	return nil
}

// Remove deletes a record's vector and reports whether it existed.
func (v *Vectorizer) Remove(ctx context.Context, id string) (bool, error) {
	return v.store.Delete(ctx, id)
}

// ReindexAll re-embeds every record of every type. Per-record failures are
// logged and counted; only failing to read the record store aborts the run.
func (v *Vectorizer) ReindexAll(ctx context.Context) (*ReindexReport, error) {
	ctx, span := tracer.Start(ctx, "Vectorizer.ReindexAll")
	defer span.End()

	start := time.Now()
	report := &ReindexReport{ByType: make(map[models.RecordType]int)}

	pool, err := ants.NewPool(v.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create reindex pool: %w", err)
	}
	defer pool.Release()

	types, err := v.recordTypes(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	finish := func(r *models.Record, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed++
			v.logger.Warn("reindex: record failed", zap.String("id", r.ID), zap.String("type", string(r.Type)), zap.Error(err))
			return
		}
		report.Succeeded++
		report.ByType[r.Type]++
	}

	var readErr error
	for _, t := range types {
		for offset := 0; ; offset += v.pageSize {
			if err := ctx.Err(); err != nil {
				readErr = err
				break
			}
			page, err := v.records.ListByType(ctx, t, offset, v.pageSize)
			if err != nil {
				readErr = fmt.Errorf("list %s records: %w", t, err)
				break
			}
			for _, r := range page {
				report.Total++
				wg.Add(1)
				if err := pool.Submit(func() {
					defer wg.Done()
					finish(r, v.vectorizeRecord(ctx, r))
				}); err != nil {
					wg.Done()
					finish(r, err)
				}
			}
			if len(page) < v.pageSize {
				break
			}
		}
		if readErr != nil {
			break
		}
	}
	wg.Wait()
	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("reindex.total", report.Total),
		attribute.Int("reindex.failed", report.Failed),
	)
	v.logger.Info("reindex finished",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))

	if readErr != nil {
		span.RecordError(readErr)
		span.SetStatus(codes.Error, readErr.Error())
		return report, readErr
	}
	return report, nil
}

// recordTypes returns the known types followed by any other type present in the store.
func (v *Vectorizer) recordTypes(ctx context.Context) ([]models.RecordType, error) {
	stored, err := v.records.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("list record types: %w", err)
	}
	seen := make(map[models.RecordType]bool)
	var out []models.RecordType
	for _, t := range append(append([]models.RecordType{}, models.KnownRecordTypes...), stored...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}
