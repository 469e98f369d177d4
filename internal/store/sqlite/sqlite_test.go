package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
	"github.com/rankstack/rankstack-sync/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rankstack.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rankstack.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	now := time.Now().UTC()
	if _, err := s.Collections().Save(ctx, &model.Collection{ID: "col-1", Name: "Groceries", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer func() { _ = s.Close() }()

	got, err := s.Collections().Get(ctx, "col-1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "Groceries" {
		t.Fatalf("unexpected collection after reopen: %+v", got)
	}
}

func TestSQLite_TextTimestampsSortWithinSecond(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Two rows inside the same second, one with a zero fraction. The text
	// encoding must still order them chronologically.
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	older := &model.Collection{ID: "col-old", Name: "old", CreatedAt: base, UpdatedAt: base}
	newer := &model.Collection{ID: "col-new", Name: "new", CreatedAt: base.Add(500 * time.Millisecond), UpdatedAt: base.Add(500 * time.Millisecond)}

	if _, err := s.Collections().Save(ctx, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if _, err := s.Collections().Save(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	cols, err := s.Collections().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cols) != 2 || cols[0].ID != "col-new" {
		t.Fatalf("expected col-new first, got %+v", cols)
	}
}

func TestSQLite_HealthPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.HealthPing(context.Background()); err != nil {
		t.Fatalf("health ping: %v", err)
	}
}
