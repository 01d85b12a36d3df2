package vector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

const (
	// BackendMemory is the reference array-of-records backend.
	BackendMemory = "memory"
	// BackendChromem stores vectors in a chromem-go collection.
	BackendChromem = "chromem"
)

// New creates the store selected by cfg.VectorBackend, persisting to cfg.VectorIndexPath.
func New(cfg config.StorageConfig, dimension int, logger *zap.Logger) (Store, error) {
	opts := []Option{WithPath(cfg.VectorIndexPath), WithLogger(logger)}
	switch cfg.VectorBackend {
	case BackendMemory, "":
		return NewMemoryStore(dimension, opts...)
	case BackendChromem:
		return NewChromemStore(dimension, opts...)
	default:
		return nil, fmt.Errorf("unknown vector backend: %s (supported: memory, chromem)", cfg.VectorBackend)
	}
}
