// Package indexer writes records to the record store and both indices, and
// keeps the vector store in sync with the record store.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/lexical"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// ErrInvalidRecord is returned when a record input is missing required fields.
var ErrInvalidRecord = errors.New("invalid record")

// IndexResult describes one write. Vectorized is false when embedding failed;
// the record is stored and lexically searchable regardless.
type IndexResult struct {
	Record      *models.Record `json:"record"`
	Vectorized  bool           `json:"vectorized"`
	VectorError string         `json:"vector_error,omitempty"`
}

// Indexer is the record write path.
type Indexer struct {
	records    storage.RecordStore
	lexical    lexical.Index
	vectorizer *Vectorizer
	logger     *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (record indexed, record deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(records storage.RecordStore, lex lexical.Index, vectorizer *Vectorizer, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		records:    records,
		lexical:    lex,
		vectorizer: vectorizer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexRecord stores the record, indexes it lexically, then vectorizes it.
// A vectorization failure is logged and reported in the result but does not
// fail the write; any vector left from an earlier version is dropped so the
// record is served lexically only.
func (idx *Indexer) IndexRecord(ctx context.Context, in *models.RecordInput) (*IndexResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	r := &models.Record{
		ID:        id,
		Type:      in.Type,
		ScopeID:   in.ScopeID,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		Status:    in.Status,
		Priority:  in.Priority,
		ParentID:  in.ParentID,
		CreatedAt: in.CreatedAt,
	}
	if err := idx.records.PutRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", err)
	}
	if err := idx.lexical.Index(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to index record: %w", err)
	}

	res := &IndexResult{Record: r, Vectorized: true}
	if err := idx.vectorizer.vectorizeRecord(ctx, r); err != nil {
		idx.logger.Warn("record stored without vector", zap.String("id", r.ID), zap.Error(err))
		res.Vectorized = false
		res.VectorError = err.Error()
		if _, rerr := idx.vectorizer.Remove(ctx, r.ID); rerr != nil {
			idx.logger.Warn("failed to drop stale vector", zap.String("id", r.ID), zap.Error(rerr))
		}
	}
	idx.logger.Debug("record indexed", zap.String("id", r.ID), zap.String("type", string(r.Type)), zap.Bool("vectorized", res.Vectorized))
	return res, nil
}

// GetRecord returns a stored record.
func (idx *Indexer) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	r, err := idx.records.GetRecord(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrSourceNotFound, err)
	}
	return r, err
}

// DeleteRecord removes a record from the record store and both indices.
func (idx *Indexer) DeleteRecord(ctx context.Context, id string) error {
	if err := idx.records.DeleteRecord(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrSourceNotFound, err)
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if err := idx.lexical.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from lexical index: %w", err)
	}
	if _, err := idx.vectorizer.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vector: %w", err)
	}
	idx.logger.Debug("record deleted", zap.String("id", id))
	return nil
}

func validate(in *models.RecordInput) error {
	switch {
	case in == nil:
		return fmt.Errorf("%w: empty input", ErrInvalidRecord)
	case in.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidRecord)
	case in.ScopeID == "":
		return fmt.Errorf("%w: scope_id is required", ErrInvalidRecord)
	case Preprocess(in.Content) == "" && Preprocess(in.Title) == "":
		return fmt.Errorf("%w: title or content is required", ErrInvalidRecord)
	}
	return nil
}
