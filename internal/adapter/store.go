// Package adapter wraps raw store drivers with the write semantics the
// coordinator depends on: timestamp deduplication on Save, always-dedup Merge
// for sync passes, and unconditional Put for migration. The Remote type
// composes the local replica, the remote store, and the mirror queue into the
// cloud-first persistence target.
package adapter

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

// Store decorates a store.Store with duplicate-ID resolution.
//
// Save honours the dedup flag: with dedup on, saving an existing ID compares
// updatedAt timestamps and either refreshes the record (incoming strictly
// newer) or silently keeps the existing one. With dedup off the driver's
// ErrDuplicateID surfaces unchanged.
//
// Merge applies the same newer-wins rule regardless of the flag; Put always
// overwrites. Sync passes use Merge, migration uses Put.
type Store struct {
	name    string
	backing store.Store
	dedup   bool
	log     zerolog.Logger
}

// NewStore wraps backing. The name tags log lines ("local", "remote").
func NewStore(backing store.Store, name string, dedup bool, log zerolog.Logger) *Store {
	return &Store{name: name, backing: backing, dedup: dedup, log: log}
}

// Backing exposes the wrapped driver.
func (s *Store) Backing() store.Store { return s.backing }

// --- Collections ---

// SaveCollection stores c. The bool reports whether the store changed: false
// means an existing record with the same ID was newer and was kept.
func (s *Store) SaveCollection(ctx context.Context, c *model.Collection) (bool, error) {
	_, err := s.backing.Collections().Save(ctx, c)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrDuplicateID) && s.dedup {
		return s.mergeCollectionConflict(ctx, c)
	}
	return false, err
}

// MergeCollection upserts c with newer-wins conflict resolution, regardless
// of the dedup flag.
func (s *Store) MergeCollection(ctx context.Context, c *model.Collection) (bool, error) {
	_, err := s.backing.Collections().Save(ctx, c)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrDuplicateID) {
		return s.mergeCollectionConflict(ctx, c)
	}
	return false, err
}

// PutCollection overwrites any existing record with the same ID.
func (s *Store) PutCollection(ctx context.Context, c *model.Collection) error {
	_, err := s.backing.Collections().Save(ctx, c)
	if errors.Is(err, model.ErrDuplicateID) {
		_, err = s.backing.Collections().Update(ctx, c)
	}
	return err
}

func (s *Store) mergeCollectionConflict(ctx context.Context, incoming *model.Collection) (bool, error) {
	existing, err := s.backing.Collections().Get(ctx, incoming.ID)
	if err != nil {
		return false, err
	}
	if !incoming.UpdatedAt.After(existing.UpdatedAt) {
		s.log.Debug().
			Str("store", s.name).
			Str("collectionId", incoming.ID).
			Time("existingUpdatedAt", existing.UpdatedAt).
			Time("incomingUpdatedAt", incoming.UpdatedAt).
			Msg("duplicate collection kept, existing record is not older")
		return false, nil
	}
	if _, err := s.backing.Collections().Update(ctx, incoming); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	return s.backing.Collections().Get(ctx, id)
}

func (s *Store) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	return s.backing.Collections().List(ctx)
}

func (s *Store) UpdateCollection(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	return s.backing.Collections().Update(ctx, c)
}

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	return s.backing.Collections().Delete(ctx, id)
}

func (s *Store) DeleteAllCollections(ctx context.Context) error {
	return s.backing.Collections().DeleteAll(ctx)
}

// --- Items ---

// SaveItem stores it; the bool has the same meaning as in SaveCollection.
func (s *Store) SaveItem(ctx context.Context, it *model.Item) (bool, error) {
	_, err := s.backing.Items().Save(ctx, it)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrDuplicateID) && s.dedup {
		return s.mergeItemConflict(ctx, it)
	}
	return false, err
}

// MergeItem upserts it with newer-wins conflict resolution.
func (s *Store) MergeItem(ctx context.Context, it *model.Item) (bool, error) {
	_, err := s.backing.Items().Save(ctx, it)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrDuplicateID) {
		return s.mergeItemConflict(ctx, it)
	}
	return false, err
}

// PutItem overwrites any existing record with the same ID.
func (s *Store) PutItem(ctx context.Context, it *model.Item) error {
	_, err := s.backing.Items().Save(ctx, it)
	if errors.Is(err, model.ErrDuplicateID) {
		_, err = s.backing.Items().Update(ctx, it)
	}
	return err
}

func (s *Store) mergeItemConflict(ctx context.Context, incoming *model.Item) (bool, error) {
	existing, err := s.backing.Items().Get(ctx, incoming.ID)
	if err != nil {
		return false, err
	}
	if !incoming.UpdatedAt.After(existing.UpdatedAt) {
		s.log.Debug().
			Str("store", s.name).
			Str("itemId", incoming.ID).
			Time("existingUpdatedAt", existing.UpdatedAt).
			Time("incomingUpdatedAt", incoming.UpdatedAt).
			Msg("duplicate item kept, existing record is not older")
		return false, nil
	}
	if _, err := s.backing.Items().Update(ctx, incoming); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return s.backing.Items().Get(ctx, id)
}

func (s *Store) ListItems(ctx context.Context) ([]*model.Item, error) {
	return s.backing.Items().List(ctx)
}

func (s *Store) ListItemsByCollection(ctx context.Context, collectionID string) ([]*model.Item, error) {
	return s.backing.Items().ListByCollection(ctx, collectionID)
}

func (s *Store) UpdateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	return s.backing.Items().Update(ctx, it)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.backing.Items().Delete(ctx, id)
}

func (s *Store) DeleteAllItems(ctx context.Context) error {
	return s.backing.Items().DeleteAll(ctx)
}
