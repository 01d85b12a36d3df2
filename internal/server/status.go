package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// StatusConfig is the subset of configuration reported by status.
type StatusConfig struct {
	VectorBackend       string               `json:"vector_backend"`
	EmbeddingProvider   string               `json:"embedding_provider"`
	EmbeddingDimensions int                  `json:"embedding_dimensions"`
	DatabasePath        string               `json:"database_path,omitempty"`
	BleveIndexPath      string               `json:"bleve_index_path,omitempty"`
	VectorIndexPath     string               `json:"vector_index_path,omitempty"`
	Ranking             config.RankingConfig `json:"ranking"`
}

// Status is the shape of GET /api/v1/status.
type Status struct {
	Records       int64          `json:"records"`
	LexicalDocs   uint64         `json:"lexical_docs"`
	Vectors       vector.Stats   `json:"vectors"`
	DiskUsage     *storage.Usage `json:"disk_usage,omitempty"`
	Configuration StatusConfig   `json:"config"`
}

// CollectStatus gathers counts, vector stats, configuration and disk usage.
// Disk usage is omitted when it cannot be measured.
func CollectStatus(ctx context.Context, d Deps) (*Status, error) {
	records, err := d.Records.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	docs, err := d.Lexical.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count lexical docs: %w", err)
	}
	cfg := d.Config
	st := &Status{
		Records:     records,
		LexicalDocs: docs,
		Vectors:     d.Vectors.Stats(),
		Configuration: StatusConfig{
			VectorBackend:       cfg.Storage.VectorBackend,
			EmbeddingProvider:   cfg.Embedding.Provider,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			DatabasePath:        cfg.Storage.DatabasePath,
			BleveIndexPath:      cfg.Storage.BleveIndexPath,
			VectorIndexPath:     cfg.Storage.VectorIndexPath,
			Ranking:             cfg.Ranking,
		},
	}
	if d.Reranker != nil {
		st.Configuration.Ranking = d.Reranker.Boosts()
	}
	if usage, err := storage.MeasureUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.VectorIndexPath); err == nil {
		st.DiskUsage = &usage
	}
	return st, nil
}
