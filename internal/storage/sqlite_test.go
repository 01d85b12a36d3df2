package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

func newStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	r := &models.Record{
		ID:       "inq-1",
		Type:     models.RecordTypeInquiry,
		ScopeID:  "app-1",
		Title:    "Printer offline",
		Content:  "The office printer shows offline since Monday.",
		Category: "hardware",
		Priority: "high",
	}
	if err := store.PutRecord(ctx, r); err != nil {
		t.Fatal(err)
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
	created := r.CreatedAt

	got, err := store.GetRecord(ctx, "inq-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Printer offline" || got.Category != "hardware" || got.Type != models.RecordTypeInquiry {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}

	update := &models.Record{ID: "inq-1", Type: models.RecordTypeInquiry, ScopeID: "app-1", Title: "Printer fixed", Content: "resolved"}
	if err := store.PutRecord(ctx, update); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRecord(ctx, "inq-1")
	if got.Title != "Printer fixed" || got.Category != "" {
		t.Errorf("replace should overwrite every field, got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Error("replace without created_at should keep the original creation time")
	}

	if err := store.DeleteRecord(ctx, "inq-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRecord(ctx, "inq-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteRecord(ctx, "inq-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_ListByTypeAndCount(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := &models.Record{ID: fmt.Sprintf("faq-%d", i), Type: models.RecordTypeFAQ, ScopeID: "s",
			Title: "q", Content: "a", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.PutRecord(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.PutRecord(ctx, &models.Record{ID: "resp-1", Type: models.RecordTypeResponse, ScopeID: "s", Content: "ok", ParentID: "inq-9"}); err != nil {
		t.Fatal(err)
	}

	page, err := store.ListByType(ctx, models.RecordTypeFAQ, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].ID != "faq-1" || page[1].ID != "faq-2" {
		t.Errorf("page = %v", page)
	}

	rest, err := store.ListByType(ctx, models.RecordTypeFAQ, 4, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("last page len = %d", len(rest))
	}

	n, err := store.CountRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("count = %d, want 6", n)
	}

	types, err := store.Types(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != models.RecordTypeFAQ || types[1] != models.RecordTypeResponse {
		t.Errorf("types = %v", types)
	}

	resp, err := store.GetRecord(ctx, "resp-1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ParentID != "inq-9" {
		t.Errorf("parent_id = %q", resp.ParentID)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.PutRecord(ctx, &models.Record{ID: "x", Type: "note", ScopeID: "s", Content: "c"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRecord(ctx, "x"); err != nil {
		t.Fatal(err)
	}
}
