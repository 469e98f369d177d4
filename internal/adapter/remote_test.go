package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankstack/rankstack-sync/internal/mirror"
	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store/memstore"
)

type remoteFixture struct {
	remote *Remote
	local  *Store
	cloud  *Store
	queue  *mirror.Queue
}

func newRemoteFixture(t *testing.T) *remoteFixture {
	t.Helper()
	log := zerolog.Nop()
	local := NewStore(memstore.New(), "local", true, log)
	cloud := NewStore(memstore.New(), "remote", true, log)

	queue := mirror.NewQueue(NewApplier(cloud, time.Second), mirror.Config{
		Shards:      2,
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
		Log:         log,
	})
	t.Cleanup(queue.Stop)

	r := NewRemote(cloud, local, queue, time.Second, log)
	r.SetAvailable(true)
	return &remoteFixture{remote: r, local: local, cloud: cloud, queue: queue}
}

func TestRemote_SaveMirrorsToCloud(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)

	c := collectionAt("col-1", "Groceries", time.Now().UTC())
	written, err := f.remote.SaveCollection(ctx, c)
	require.NoError(t, err)
	assert.True(t, written)
	require.NoError(t, f.remote.Drain(ctx))

	got, err := f.cloud.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)

	got, err = f.local.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
}

func TestRemote_UnavailableKeepsWritesLocal(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)
	f.remote.SetAvailable(false)

	_, err := f.remote.SaveCollection(ctx, collectionAt("col-1", "Groceries", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, f.queue.Flush(ctx))

	_, err = f.cloud.GetCollection(ctx, "col-1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.local.GetCollection(ctx, "col-1")
	assert.NoError(t, err)
}

func TestRemote_ReadFallsBackToLocalOnRemoteMiss(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)

	// Seed the replica directly: the record exists locally but has not
	// replicated yet. The read must still find it.
	_, err := f.local.SaveCollection(ctx, collectionAt("col-1", "Groceries", time.Now().UTC()))
	require.NoError(t, err)

	got, err := f.remote.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
}

func TestRemote_ListPrefersCloudView(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)
	base := time.Now().UTC()

	_, err := f.remote.SaveCollection(ctx, collectionAt("col-1", "mine", base))
	require.NoError(t, err)
	require.NoError(t, f.remote.Drain(ctx))

	// A record written by another device exists only in the cloud.
	_, err = f.cloud.MergeCollection(ctx, collectionAt("col-2", "theirs", base.Add(time.Second)))
	require.NoError(t, err)

	list, err := f.remote.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestRemote_UpdateAndDeletePropagate(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)
	base := time.Now().UTC()

	it := itemAt("item-1", "col-1", "Milk", base)
	_, err := f.remote.SaveItem(ctx, it)
	require.NoError(t, err)
	require.NoError(t, f.remote.Drain(ctx))

	upd := it.Clone()
	upd.Title = "Oat milk"
	upd.UpdatedAt = base.Add(time.Minute)
	_, err = f.remote.UpdateItem(ctx, upd)
	require.NoError(t, err)
	require.NoError(t, f.remote.Drain(ctx))

	got, err := f.cloud.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", got.Title)

	require.NoError(t, f.remote.DeleteItem(ctx, "item-1"))
	require.NoError(t, f.remote.Drain(ctx))

	_, err = f.cloud.GetItem(ctx, "item-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.local.GetItem(ctx, "item-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemote_ClearAllPropagates(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t)
	base := time.Now().UTC()

	_, err := f.remote.SaveCollection(ctx, collectionAt("col-1", "Groceries", base))
	require.NoError(t, err)
	_, err = f.remote.SaveItem(ctx, itemAt("item-1", "col-1", "Milk", base))
	require.NoError(t, err)
	require.NoError(t, f.remote.Drain(ctx))

	require.NoError(t, f.remote.DeleteAllItems(ctx))
	require.NoError(t, f.remote.DeleteAllCollections(ctx))
	require.NoError(t, f.remote.Drain(ctx))

	cols, err := f.cloud.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
	items, err := f.cloud.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestApplier_DeleteAbsentRecordIsSuccess(t *testing.T) {
	ctx := context.Background()
	cloud := NewStore(memstore.New(), "remote", true, zerolog.Nop())
	a := NewApplier(cloud, time.Second)

	err := a.Apply(ctx, &mirror.Job{Op: mirror.OpDeleteItem, Key: "ghost"})
	assert.NoError(t, err)

	err = a.Apply(ctx, &mirror.Job{Op: mirror.OpDeleteCollection, Key: "ghost"})
	assert.NoError(t, err)
}

func TestApplier_SaveReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cloud := NewStore(memstore.New(), "remote", true, zerolog.Nop())
	a := NewApplier(cloud, time.Second)

	c := collectionAt("col-1", "Groceries", time.Now().UTC())
	job := &mirror.Job{Op: mirror.OpSaveCollection, Key: c.ID, Collection: c}

	require.NoError(t, a.Apply(ctx, job))
	require.NoError(t, a.Apply(ctx, job))

	list, err := cloud.ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
