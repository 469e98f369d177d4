package store

import (
	"context"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// Store exposes persistence operations required by the coordinator.
// Implementations live under internal/store/<driver>/ (e.g., sqlite, postgres).
//
// Semantics shared by all drivers:
//   - Save fails with model.ErrDuplicateID when a record with the same ID
//     already exists.
//   - Update and Delete fail with model.ErrNotFound when the ID is absent.
//   - List results are ordered by creation time, newest first.
type Store interface {
	Collections() Collections
	Items() Items
}

type Collections interface {
	Save(ctx context.Context, c *model.Collection) (*model.Collection, error)
	Get(ctx context.Context, id string) (*model.Collection, error)
	List(ctx context.Context) ([]*model.Collection, error)
	Update(ctx context.Context, c *model.Collection) (*model.Collection, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type Items interface {
	Save(ctx context.Context, it *model.Item) (*model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context) ([]*model.Item, error)
	ListByCollection(ctx context.Context, collectionID string) ([]*model.Item, error)
	Update(ctx context.Context, it *model.Item) (*model.Item, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
