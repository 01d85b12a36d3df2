// Package lexical adapts a full-text engine to the hybrid search engine's lexical side.
package lexical

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Searcher runs full-text queries. Scores are on the engine's own scale.
type Searcher interface {
	Search(ctx context.Context, query string, filters *models.Filters, limit int) ([]models.LexicalResult, error)
}

// Index is a Searcher that can also be written to.
type Index interface {
	Searcher
	Index(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}
