package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rankstack/rankstack-sync/internal/mirror"
	"github.com/rankstack/rankstack-sync/internal/model"
)

// Remote is the cloud-first persistence target. Writes land on the local
// replica first, then replay to the remote store through the mirror queue;
// reads prefer the remote (bounded by the sync timeout) and fall back to the
// replica. A failed remote call flips the availability flag off, after which
// reads go straight to the replica until the health monitor restores it. The
// local replica stays a full copy of the record set, so membership checks
// (update, delete, not-found) are answered locally in both modes.
type Remote struct {
	remote  *Store
	local   *Store
	queue   *mirror.Queue
	timeout time.Duration

	available atomic.Bool
	log       zerolog.Logger
}

// NewRemote composes the cloud-first target. The queue must be built around
// an Applier for the same remote store.
func NewRemote(remote, local *Store, queue *mirror.Queue, timeout time.Duration, log zerolog.Logger) *Remote {
	return &Remote{remote: remote, local: local, queue: queue, timeout: timeout, log: log}
}

// Available reports the cached remote reachability flag.
func (r *Remote) Available() bool { return r.available.Load() }

// SetAvailable flips the reachability flag; transitions are logged once.
func (r *Remote) SetAvailable(v bool) {
	if old := r.available.Swap(v); old != v {
		if v {
			r.log.Info().Msg("remote store available")
		} else {
			r.log.Warn().Msg("remote store unavailable")
		}
	}
}

// Drain blocks until every mirror job submitted before the call has been
// replayed, or ctx expires.
func (r *Remote) Drain(ctx context.Context) error {
	return r.queue.Flush(ctx)
}

// enqueue hands a job to the mirror queue when the remote is reachable. The
// job context is detached from the request so replication survives the
// response; a failed enqueue is logged and left for the next sync pass.
func (r *Remote) enqueue(ctx context.Context, job *mirror.Job) {
	if !r.Available() {
		return
	}
	if err := r.queue.Submit(context.WithoutCancel(ctx), job); err != nil {
		r.log.Warn().Err(err).
			Str("op", job.Op.String()).
			Str("key", job.Key).
			Msg("mirror enqueue failed, record will converge on next sync pass")
	}
}

// --- Collections ---

func (r *Remote) SaveCollection(ctx context.Context, c *model.Collection) (bool, error) {
	written, err := r.local.SaveCollection(ctx, c)
	if err != nil {
		return false, err
	}
	if written {
		r.enqueue(ctx, &mirror.Job{Op: mirror.OpSaveCollection, Key: c.ID, Collection: c.Clone()})
	}
	return written, nil
}

func (r *Remote) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	if r.Available() {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		c, err := r.remote.GetCollection(rctx, id)
		cancel()
		if err == nil {
			return c, nil
		}
		// A remote miss still falls through: a just-saved record may not
		// have replicated yet.
		if !errors.Is(err, model.ErrNotFound) {
			r.SetAvailable(false)
			r.log.Warn().Err(err).Str("collectionId", id).Msg("remote read failed, serving local replica")
		}
	}
	return r.local.GetCollection(ctx, id)
}

func (r *Remote) ListCollections(ctx context.Context) ([]*model.Collection, error) {
	if r.Available() {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		list, err := r.remote.ListCollections(rctx)
		cancel()
		if err == nil {
			return list, nil
		}
		r.SetAvailable(false)
		r.log.Warn().Err(err).Msg("remote list failed, serving local replica")
	}
	return r.local.ListCollections(ctx)
}

func (r *Remote) UpdateCollection(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	updated, err := r.local.UpdateCollection(ctx, c)
	if err != nil {
		return nil, err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpUpdateCollection, Key: c.ID, Collection: updated.Clone()})
	return updated, nil
}

func (r *Remote) DeleteCollection(ctx context.Context, id string) error {
	if err := r.local.DeleteCollection(ctx, id); err != nil {
		return err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpDeleteCollection, Key: id})
	return nil
}

func (r *Remote) DeleteAllCollections(ctx context.Context) error {
	if err := r.local.DeleteAllCollections(ctx); err != nil {
		return err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpClearCollections, Key: "collections"})
	return nil
}

// --- Items ---

func (r *Remote) SaveItem(ctx context.Context, it *model.Item) (bool, error) {
	written, err := r.local.SaveItem(ctx, it)
	if err != nil {
		return false, err
	}
	if written {
		r.enqueue(ctx, &mirror.Job{Op: mirror.OpSaveItem, Key: it.ID, Item: it.Clone()})
	}
	return written, nil
}

func (r *Remote) GetItem(ctx context.Context, id string) (*model.Item, error) {
	if r.Available() {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		it, err := r.remote.GetItem(rctx, id)
		cancel()
		if err == nil {
			return it, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			r.SetAvailable(false)
			r.log.Warn().Err(err).Str("itemId", id).Msg("remote read failed, serving local replica")
		}
	}
	return r.local.GetItem(ctx, id)
}

func (r *Remote) ListItems(ctx context.Context) ([]*model.Item, error) {
	if r.Available() {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		list, err := r.remote.ListItems(rctx)
		cancel()
		if err == nil {
			return list, nil
		}
		r.SetAvailable(false)
		r.log.Warn().Err(err).Msg("remote list failed, serving local replica")
	}
	return r.local.ListItems(ctx)
}

func (r *Remote) ListItemsByCollection(ctx context.Context, collectionID string) ([]*model.Item, error) {
	if r.Available() {
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		list, err := r.remote.ListItemsByCollection(rctx, collectionID)
		cancel()
		if err == nil {
			return list, nil
		}
		r.SetAvailable(false)
		r.log.Warn().Err(err).Str("collectionId", collectionID).Msg("remote list failed, serving local replica")
	}
	return r.local.ListItemsByCollection(ctx, collectionID)
}

func (r *Remote) UpdateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	updated, err := r.local.UpdateItem(ctx, it)
	if err != nil {
		return nil, err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpUpdateItem, Key: it.ID, Item: updated.Clone()})
	return updated, nil
}

func (r *Remote) DeleteItem(ctx context.Context, id string) error {
	if err := r.local.DeleteItem(ctx, id); err != nil {
		return err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpDeleteItem, Key: id})
	return nil
}

func (r *Remote) DeleteAllItems(ctx context.Context) error {
	if err := r.local.DeleteAllItems(ctx); err != nil {
		return err
	}
	r.enqueue(ctx, &mirror.Job{Op: mirror.OpClearItems, Key: "items"})
	return nil
}

// --- mirror replay ---

// Applier replays mirror jobs against the remote store. Saves and updates go
// through Merge so replays and races stay idempotent; deleting an
// already-absent record counts as success.
type Applier struct {
	remote  *Store
	timeout time.Duration
}

// NewApplier builds the queue-side replayer for the remote store. Each replay
// attempt is bounded by timeout.
func NewApplier(remote *Store, timeout time.Duration) *Applier {
	return &Applier{remote: remote, timeout: timeout}
}

func (a *Applier) Apply(ctx context.Context, job *mirror.Job) error {
	actx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	switch job.Op {
	case mirror.OpSaveCollection, mirror.OpUpdateCollection:
		_, err := a.remote.MergeCollection(actx, job.Collection)
		return err
	case mirror.OpDeleteCollection:
		if err := a.remote.DeleteCollection(actx, job.Key); err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		return nil
	case mirror.OpSaveItem, mirror.OpUpdateItem:
		_, err := a.remote.MergeItem(actx, job.Item)
		return err
	case mirror.OpDeleteItem:
		if err := a.remote.DeleteItem(actx, job.Key); err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		return nil
	case mirror.OpClearItems:
		return a.remote.DeleteAllItems(actx)
	case mirror.OpClearCollections:
		return a.remote.DeleteAllCollections(actx)
	}
	return fmt.Errorf("unknown mirror op %d", job.Op)
}
