package coordinator

import (
	"context"
	"errors"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// VerifyPersistence reads a record back from the current target immediately
// after a write. The identifier may name a collection or an item; absence
// of both fails the check. This read-back is the only durability signal
// available above stores that expose no transaction log.
func (c *Coordinator) VerifyPersistence(ctx context.Context, id string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if id == "" {
		return model.NewValidationError("id", "must not be empty")
	}

	if _, err := t.GetCollection(ctx, id); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return storageErr("verify persistence", err)
	}

	if _, err := t.GetItem(ctx, id); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return storageErr("verify persistence", err)
	}

	return &model.PersistenceVerificationError{ID: id}
}

// DeleteAllItems removes every item from the current target.
func (c *Coordinator) DeleteAllItems(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if err := t.DeleteAllItems(ctx); err != nil {
		return storageErr("delete all items", err)
	}
	return nil
}

// DeleteAllCollections removes every collection from the current target.
// Items are left alone; use ClearAllData to wipe both.
func (c *Coordinator) DeleteAllCollections(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}
	if err := t.DeleteAllCollections(ctx); err != nil {
		return storageErr("delete all collections", err)
	}
	return nil
}

// ClearAllData deletes every item, then every collection, from the current
// target. In cloud-first mode the mirror queue is drained first so queued
// per-record writes cannot land after the clear.
func (c *Coordinator) ClearAllData(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, err := c.currentTarget()
	if err != nil {
		return err
	}

	if c.Mode() == model.ModeCloudFirst && c.remote != nil {
		if err := c.remote.Drain(ctx); err != nil {
			c.log.Warn().Err(err).Msg("mirror queue drain incomplete before clear")
		}
	}

	if err := t.DeleteAllItems(ctx); err != nil {
		return storageErr("clear items", err)
	}
	if err := t.DeleteAllCollections(ctx); err != nil {
		return storageErr("clear collections", err)
	}

	c.log.Info().Msg("all data cleared")
	return nil
}
