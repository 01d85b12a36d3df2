package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements RecordStore using SQLite.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		scope_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_type_created ON records(type, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_records_scope ON records(scope_id);
	CREATE INDEX IF NOT EXISTS idx_records_parent ON records(parent_id);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `id, type, scope_id, title, content, category, status, priority, parent_id, created_at, updated_at`

// PutRecord inserts or replaces r.
func (s *SQLiteStorage) PutRecord(ctx context.Context, r *models.Record) error {
	now := s.now().UTC()
	if r.CreatedAt.IsZero() {
		var existing time.Time
		err := s.db.QueryRowContext(ctx, `SELECT created_at FROM records WHERE id = ?`, r.ID).Scan(&existing)
		switch {
		case err == nil:
			r.CreatedAt = existing
		case errors.Is(err, sql.ErrNoRows):
			r.CreatedAt = now
		default:
			return fmt.Errorf("failed to read record %s: %w", r.ID, err)
		}
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   type = excluded.type, scope_id = excluded.scope_id, title = excluded.title,
		   content = excluded.content, category = excluded.category, status = excluded.status,
		   priority = excluded.priority, parent_id = excluded.parent_id,
		   created_at = excluded.created_at, updated_at = excluded.updated_at`,
		r.ID, string(r.Type), r.ScopeID, r.Title, r.Content, r.Category, r.Status, r.Priority, r.ParentID,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", r.ID, err)
	}
	return nil
}

// GetRecord returns a record by ID.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRecord removes a record by ID.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListByType returns records of type t ordered by creation time, then id.
func (s *SQLiteStorage) ListByType(ctx context.Context, t models.RecordType, offset, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE type = ?
		 ORDER BY created_at, id LIMIT ? OFFSET ?`,
		string(t), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Types returns the distinct record types in the store, sorted.
func (s *SQLiteStorage) Types(ctx context.Context) ([]models.RecordType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT type FROM records ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RecordType
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, models.RecordType(t))
	}
	return out, rows.Err()
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*models.Record, error) {
	var r models.Record
	var typ string
	if err := sc.Scan(&r.ID, &typ, &r.ScopeID, &r.Title, &r.Content, &r.Category, &r.Status,
		&r.Priority, &r.ParentID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Type = models.RecordType(typ)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
