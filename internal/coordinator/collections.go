package coordinator

import (
	"context"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/validate"
)

// SaveCollection validates and persists a collection through the current
// target. With deduplication enabled a duplicate identifier resolves by
// timestamp instead of failing.
func (c *Coordinator) SaveCollection(ctx context.Context, col *model.Collection) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if err := validate.Collection(col); err != nil {
		return err
	}
	if _, err := t.SaveCollection(ctx, col); err != nil {
		return storageErr("save collection", err)
	}
	return nil
}

func (c *Coordinator) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, model.NewValidationError("id", "must not be empty")
	}
	col, err := t.GetCollection(ctx, id)
	if err != nil {
		return nil, storageErr("get collection", err)
	}
	return col, nil
}

func (c *Coordinator) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	cols, err := t.ListCollections(ctx)
	if err != nil {
		return nil, storageErr("list collections", err)
	}
	return cols, nil
}

// UpdateCollection replaces an existing collection wholesale. The record
// must already exist in the current target.
func (c *Coordinator) UpdateCollection(ctx context.Context, col *model.Collection) (*model.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	if err := validate.Collection(col); err != nil {
		return nil, err
	}
	updated, err := t.UpdateCollection(ctx, col)
	if err != nil {
		return nil, storageErr("update collection", err)
	}
	return updated, nil
}

func (c *Coordinator) DeleteCollection(ctx context.Context, id string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if id == "" {
		return model.NewValidationError("id", "must not be empty")
	}
	if err := t.DeleteCollection(ctx, id); err != nil {
		return storageErr("delete collection", err)
	}
	return nil
}
