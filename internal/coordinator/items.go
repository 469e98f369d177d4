package coordinator

import (
	"context"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/validate"
)

func (c *Coordinator) SaveItem(ctx context.Context, it *model.Item) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if err := validate.Item(it); err != nil {
		return err
	}
	if _, err := t.SaveItem(ctx, it); err != nil {
		return storageErr("save item", err)
	}
	return nil
}

func (c *Coordinator) GetItem(ctx context.Context, id string) (*model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, model.NewValidationError("id", "must not be empty")
	}
	it, err := t.GetItem(ctx, id)
	if err != nil {
		return nil, storageErr("get item", err)
	}
	return it, nil
}

// ListItems returns the items of one collection, or every item when
// collectionID is empty.
func (c *Coordinator) ListItems(ctx context.Context, collectionID string) ([]*model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	var items []*model.Item
	if collectionID == "" {
		items, err = t.ListItems(ctx)
	} else {
		items, err = t.ListItemsByCollection(ctx, collectionID)
	}
	if err != nil {
		return nil, storageErr("list items", err)
	}
	return items, nil
}

func (c *Coordinator) UpdateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return nil, err
	}
	if err := validate.Item(it); err != nil {
		return nil, err
	}
	updated, err := t.UpdateItem(ctx, it)
	if err != nil {
		return nil, storageErr("update item", err)
	}
	return updated, nil
}

func (c *Coordinator) DeleteItem(ctx context.Context, id string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if id == "" {
		return model.NewValidationError("id", "must not be empty")
	}
	if err := t.DeleteItem(ctx, id); err != nil {
		return storageErr("delete item", err)
	}
	return nil
}

// SaveMultipleItems writes a batch with all-or-nothing semantics. Items are
// written in order; if one write fails, every item this call wrote is
// deleted again in reverse order before the error is returned. Writes the
// deduplication rule turned into no-ops are not rolled back, since this
// call never created them.
func (c *Coordinator) SaveMultipleItems(ctx context.Context, items []*model.Item) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := validate.Item(it); err != nil {
			return err
		}
	}

	var written []string
	for _, it := range items {
		wrote, err := t.SaveItem(ctx, it)
		if err != nil {
			return c.rollbackItems(ctx, t, written, storageErr("save item", err))
		}
		if wrote {
			written = append(written, it.ID)
		}
	}
	return nil
}

// rollbackItems unwinds a partially written batch. The unwind runs on a
// context detached from the caller's, so a cancelled request cannot abandon
// the store in a partial state it could still recover from.
func (c *Coordinator) rollbackItems(ctx context.Context, t target, written []string, cause error) error {
	rctx := context.WithoutCancel(ctx)

	rolledBack := make([]string, 0, len(written))
	for i := len(written) - 1; i >= 0; i-- {
		id := written[i]
		if err := t.DeleteItem(rctx, id); err != nil {
			remaining := append([]string(nil), written[:i+1]...)
			c.log.Error().
				Err(err).
				Strs("remaining", remaining).
				Msg("bulk write rollback failed, store holds a partial batch")
			return &model.RollbackFailedError{Cause: cause, RollbackErr: err, Remaining: remaining}
		}
		rolledBack = append(rolledBack, id)
	}

	c.log.Warn().
		Int("rolledBack", len(rolledBack)).
		Msg("bulk write failed, batch unwound")
	return &model.RollbackError{Cause: cause, RolledBack: rolledBack}
}
