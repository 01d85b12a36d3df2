// Package storage persists business records. It plays the record store that the
// vectorization pipeline reads from.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// RecordStore defines record persistence operations.
type RecordStore interface {
	// PutRecord inserts or replaces a record. CreatedAt is kept from the first
	// write when the caller leaves it zero; UpdatedAt is always set to now.
	PutRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	// ListByType pages through records of one type in creation order.
	ListByType(ctx context.Context, t models.RecordType, offset, limit int) ([]*models.Record, error)
	// Types returns every record type present in the store.
	Types(ctx context.Context) ([]models.RecordType, error)
	CountRecords(ctx context.Context) (int64, error)
	Close() error
}
