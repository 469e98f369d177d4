package restapi

import (
	"context"
	"time"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

// Store adapts Client to the store.Store contract. The remote service must
// run with deduplication disabled on its write path so duplicate IDs surface
// as 409 instead of being merged server-side.
type Store struct{ client *Client }

// New builds a REST-backed store for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Store {
	return &Store{client: NewClient(baseURL, timeout)}
}

// NewWithClient allows wiring with an existing client (used by tests).
func NewWithClient(c *Client) *Store { return &Store{client: c} }

func (s *Store) Collections() store.Collections { return &collections{c: s.client} }
func (s *Store) Items() store.Items             { return &items{c: s.client} }

// Client exposes the underlying API client.
func (s *Store) Client() *Client { return s.client }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.client.Health(ctx)
}

type collections struct{ c *Client }

func (r *collections) Save(ctx context.Context, col *model.Collection) (*model.Collection, error) {
	return r.c.CreateCollection(ctx, col)
}

func (r *collections) Get(ctx context.Context, id string) (*model.Collection, error) {
	return r.c.GetCollection(ctx, id)
}

func (r *collections) List(ctx context.Context) ([]*model.Collection, error) {
	return r.c.ListCollections(ctx)
}

func (r *collections) Update(ctx context.Context, col *model.Collection) (*model.Collection, error) {
	return r.c.UpdateCollection(ctx, col)
}

func (r *collections) Delete(ctx context.Context, id string) error {
	return r.c.DeleteCollection(ctx, id)
}

func (r *collections) DeleteAll(ctx context.Context) error {
	return r.c.DeleteAllCollections(ctx)
}

type items struct{ c *Client }

func (r *items) Save(ctx context.Context, it *model.Item) (*model.Item, error) {
	return r.c.CreateItem(ctx, it)
}

func (r *items) Get(ctx context.Context, id string) (*model.Item, error) {
	return r.c.GetItem(ctx, id)
}

func (r *items) List(ctx context.Context) ([]*model.Item, error) {
	return r.c.ListItems(ctx, "")
}

func (r *items) ListByCollection(ctx context.Context, collectionID string) ([]*model.Item, error) {
	return r.c.ListItems(ctx, collectionID)
}

func (r *items) Update(ctx context.Context, it *model.Item) (*model.Item, error) {
	return r.c.UpdateItem(ctx, it)
}

func (r *items) Delete(ctx context.Context, id string) error {
	return r.c.DeleteItem(ctx, id)
}

func (r *items) DeleteAll(ctx context.Context) error {
	return r.c.DeleteAllItems(ctx)
}
