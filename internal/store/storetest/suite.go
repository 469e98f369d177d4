// Package storetest holds a driver-agnostic compliance suite. Each
// store.Store implementation runs it from its own _test.go file so the
// contract semantics stay identical across drivers.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the store.Store contract against the given factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("CollectionCRUD", func(t *testing.T) { testCollectionCRUD(t, newStore(t)) })
	t.Run("ItemCRUD", func(t *testing.T) { testItemCRUD(t, newStore(t)) })
	t.Run("DuplicateSave", func(t *testing.T) { testDuplicateSave(t, newStore(t)) })
	t.Run("AbsentUpdateDelete", func(t *testing.T) { testAbsentUpdateDelete(t, newStore(t)) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, newStore(t)) })
	t.Run("ListByCollection", func(t *testing.T) { testListByCollection(t, newStore(t)) })
	t.Run("DeleteAll", func(t *testing.T) { testDeleteAll(t, newStore(t)) })
}

// Fixture timestamps are truncated to microseconds so drivers backed by
// TIMESTAMPTZ columns round-trip them exactly.
func fixtureTime(offset time.Duration) time.Time {
	return time.Now().UTC().Truncate(time.Microsecond).Add(offset)
}

func newCollection(id, name string, created time.Time) *model.Collection {
	return &model.Collection{
		ID:        id,
		Name:      name,
		Category:  "work",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newItem(id, collectionID, title string, created time.Time) *model.Item {
	score := 0.5
	return &model.Item{
		ID:           id,
		CollectionID: collectionID,
		Title:        title,
		Done:         false,
		Score:        &score,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func testCollectionCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := fixtureTime(0)
	c := newCollection("col-1", "Groceries", created)

	saved, err := s.Collections().Save(ctx, c)
	if err != nil {
		t.Fatalf("save collection: %v", err)
	}
	if saved.ID != c.ID {
		t.Fatalf("save returned wrong ID: %s", saved.ID)
	}

	got, err := s.Collections().Get(ctx, "col-1")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if got.Name != "Groceries" || got.Category != "work" {
		t.Fatalf("unexpected collection after save: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created) {
		t.Fatalf("timestamps did not round-trip: %+v", got)
	}

	upd := got.Clone()
	upd.Name = "Groceries (weekly)"
	upd.UpdatedAt = created.Add(time.Minute)
	if _, err := s.Collections().Update(ctx, upd); err != nil {
		t.Fatalf("update collection: %v", err)
	}
	got, err = s.Collections().Get(ctx, "col-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "Groceries (weekly)" || !got.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.Collections().Delete(ctx, "col-1"); err != nil {
		t.Fatalf("delete collection: %v", err)
	}
	if _, err := s.Collections().Get(ctx, "col-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func testItemCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := fixtureTime(0)
	if _, err := s.Collections().Save(ctx, newCollection("col-1", "Groceries", created)); err != nil {
		t.Fatalf("save collection: %v", err)
	}

	it := newItem("item-1", "col-1", "Milk", created)
	if _, err := s.Items().Save(ctx, it); err != nil {
		t.Fatalf("save item: %v", err)
	}

	got, err := s.Items().Get(ctx, "item-1")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Title != "Milk" || got.CollectionID != "col-1" || got.Done {
		t.Fatalf("unexpected item after save: %+v", got)
	}
	if got.Score == nil || *got.Score != 0.5 {
		t.Fatalf("score did not round-trip: %+v", got.Score)
	}

	upd := got.Clone()
	upd.Done = true
	upd.Score = nil
	upd.UpdatedAt = created.Add(time.Minute)
	if _, err := s.Items().Update(ctx, upd); err != nil {
		t.Fatalf("update item: %v", err)
	}
	got, err = s.Items().Get(ctx, "item-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !got.Done || got.Score != nil {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.Items().Delete(ctx, "item-1"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, err := s.Items().Get(ctx, "item-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func testDuplicateSave(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := fixtureTime(0)

	if _, err := s.Collections().Save(ctx, newCollection("col-1", "Groceries", created)); err != nil {
		t.Fatalf("save collection: %v", err)
	}
	if _, err := s.Collections().Save(ctx, newCollection("col-1", "Other", created)); !errors.Is(err, model.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID for collection, got %v", err)
	}

	if _, err := s.Items().Save(ctx, newItem("item-1", "col-1", "Milk", created)); err != nil {
		t.Fatalf("save item: %v", err)
	}
	if _, err := s.Items().Save(ctx, newItem("item-1", "col-1", "Bread", created)); !errors.Is(err, model.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID for item, got %v", err)
	}
}

func testAbsentUpdateDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := fixtureTime(0)

	if _, err := s.Collections().Update(ctx, newCollection("ghost", "x", created)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating absent collection, got %v", err)
	}
	if err := s.Collections().Delete(ctx, "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting absent collection, got %v", err)
	}
	if _, err := s.Items().Update(ctx, newItem("ghost", "col-1", "x", created)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating absent item, got %v", err)
	}
	if err := s.Items().Delete(ctx, "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting absent item, got %v", err)
	}
}

func testListOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := fixtureTime(0)

	for i, id := range []string{"col-a", "col-b", "col-c"} {
		c := newCollection(id, id, base.Add(time.Duration(i)*time.Second))
		if _, err := s.Collections().Save(ctx, c); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	cols, err := s.Collections().List(ctx)
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 collections, got %d", len(cols))
	}
	if cols[0].ID != "col-c" || cols[2].ID != "col-a" {
		t.Fatalf("expected newest-first ordering, got %s..%s", cols[0].ID, cols[2].ID)
	}
}

func testListByCollection(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := fixtureTime(0)

	for _, id := range []string{"col-1", "col-2"} {
		if _, err := s.Collections().Save(ctx, newCollection(id, id, base)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	fixtures := []struct{ id, col string }{
		{"item-1", "col-1"},
		{"item-2", "col-2"},
		{"item-3", "col-1"},
	}
	for i, f := range fixtures {
		it := newItem(f.id, f.col, f.id, base.Add(time.Duration(i)*time.Second))
		if _, err := s.Items().Save(ctx, it); err != nil {
			t.Fatalf("save %s: %v", f.id, err)
		}
	}

	got, err := s.Items().ListByCollection(ctx, "col-1")
	if err != nil {
		t.Fatalf("list by collection: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items in col-1, got %d", len(got))
	}
	for _, it := range got {
		if it.CollectionID != "col-1" {
			t.Fatalf("item %s leaked from %s", it.ID, it.CollectionID)
		}
	}
	if got[0].ID != "item-3" {
		t.Fatalf("expected newest-first ordering, got %s first", got[0].ID)
	}

	all, err := s.Items().List(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items total, got %d", len(all))
	}
}

func testDeleteAll(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := fixtureTime(0)

	if _, err := s.Collections().Save(ctx, newCollection("col-1", "Groceries", base)); err != nil {
		t.Fatalf("save collection: %v", err)
	}
	if _, err := s.Items().Save(ctx, newItem("item-1", "col-1", "Milk", base)); err != nil {
		t.Fatalf("save item: %v", err)
	}

	if err := s.Items().DeleteAll(ctx); err != nil {
		t.Fatalf("delete all items: %v", err)
	}
	if err := s.Collections().DeleteAll(ctx); err != nil {
		t.Fatalf("delete all collections: %v", err)
	}

	cols, err := s.Collections().List(ctx)
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	items, err := s.Items().List(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(cols) != 0 || len(items) != 0 {
		t.Fatalf("expected empty store, got %d collections / %d items", len(cols), len(items))
	}
}
