// Package memstore provides an in-memory store.Store implementation. It backs
// the "memory" local driver and keeps unit tests free of disk state.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

// Store is a map-backed store.Store guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*model.Collection
	items       map[string]*model.Item
}

func New() *Store {
	return &Store{
		collections: make(map[string]*model.Collection),
		items:       make(map[string]*model.Item),
	}
}

func (s *Store) Collections() store.Collections { return &collections{s: s} }
func (s *Store) Items() store.Items             { return &items{s: s} }

type collections struct{ s *Store }

func (r *collections) Save(_ context.Context, c *model.Collection) (*model.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[c.ID]; ok {
		return nil, model.ErrDuplicateID
	}
	r.s.collections[c.ID] = c.Clone()
	return c.Clone(), nil
}

func (r *collections) Get(_ context.Context, id string) (*model.Collection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.collections[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *collections) List(_ context.Context) ([]*model.Collection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Collection, 0, len(r.s.collections))
	for _, c := range r.s.collections {
		out = append(out, c.Clone())
	}
	sortCollections(out)
	return out, nil
}

func (r *collections) Update(_ context.Context, c *model.Collection) (*model.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[c.ID]; !ok {
		return nil, model.ErrNotFound
	}
	r.s.collections[c.ID] = c.Clone()
	return c.Clone(), nil
}

func (r *collections) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.collections, id)
	return nil
}

func (r *collections) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.collections = make(map[string]*model.Collection)
	return nil
}

type items struct{ s *Store }

func (r *items) Save(_ context.Context, it *model.Item) (*model.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[it.ID]; ok {
		return nil, model.ErrDuplicateID
	}
	r.s.items[it.ID] = it.Clone()
	return it.Clone(), nil
}

func (r *items) Get(_ context.Context, id string) (*model.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return it.Clone(), nil
}

func (r *items) List(_ context.Context) ([]*model.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		out = append(out, it.Clone())
	}
	sortItems(out)
	return out, nil
}

func (r *items) ListByCollection(_ context.Context, collectionID string) ([]*model.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Item, 0)
	for _, it := range r.s.items {
		if it.CollectionID == collectionID {
			out = append(out, it.Clone())
		}
	}
	sortItems(out)
	return out, nil
}

func (r *items) Update(_ context.Context, it *model.Item) (*model.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[it.ID]; !ok {
		return nil, model.ErrNotFound
	}
	r.s.items[it.ID] = it.Clone()
	return it.Clone(), nil
}

func (r *items) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r *items) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items = make(map[string]*model.Item)
	return nil
}

// Map iteration order is random; sort so lists are stable for callers.
func sortCollections(out []*model.Collection) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func sortItems(out []*model.Item) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
