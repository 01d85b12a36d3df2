// Package vector stores one embedding per record and answers exact cosine
// similarity queries over them.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrPersistence wraps any failure to write a snapshot.
	ErrPersistence = errors.New("vector persistence failed")
	// ErrNonFinite is returned for vectors holding NaN or infinite components.
	ErrNonFinite = errors.New("vector has non-finite component")
)

// MetricInnerProduct is the only supported metric. On unit vectors it equals cosine similarity.
const MetricInnerProduct = "inner_product"

// IndexConfig is fixed for the life of a store. The ANN tuning fields are
// carried in snapshots but unused by exact search.
type IndexConfig struct {
	Dimension      int    `json:"dimension"`
	Metric         string `json:"metric"`
	M              int    `json:"m,omitempty"`
	EfConstruction int    `json:"ef_construction,omitempty"`
	EfSearch       int    `json:"ef_search,omitempty"`
}

// Record is one stored vector.
type Record struct {
	ID       string                `json:"id"`
	Vector   []float32             `json:"vector"`
	Metadata models.VectorMetadata `json:"metadata"`
}

// Stats summarizes a store.
type Stats struct {
	TotalVectors int         `json:"total_vectors"`
	Config       IndexConfig `json:"config"`
	Backend      string      `json:"backend"`
}

// Filter decides whether a stored vector is eligible for a search.
type Filter func(models.VectorMetadata) bool

// Store is the vector store contract shared by all backends.
type Store interface {
	// Upsert L2-normalizes a copy of vec and stores it under id, replacing any previous entry.
	Upsert(ctx context.Context, id string, vec []float32, meta models.VectorMetadata) error
	// Delete removes id and reports whether it was present.
	Delete(ctx context.Context, id string) (bool, error)
	// Search returns at most limit hits by descending score in [0,1]. Equal scores keep insertion order.
	Search(ctx context.Context, query []float32, limit int) ([]models.VectorResult, error)
	// SearchFiltered is Search restricted to entries accepted by filter.
	SearchFiltered(ctx context.Context, query []float32, limit int, filter Filter) ([]models.VectorResult, error)
	// Get returns a copy of one record.
	Get(id string) (Record, bool)
	// Persist writes a snapshot. It is a no-op when the store has no path.
	Persist(ctx context.Context) error
	// Load replaces the contents with the snapshot on disk, if any.
	Load(ctx context.Context) error
	Stats() Stats
	Close() error
}
