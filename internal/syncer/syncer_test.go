package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankstack/rankstack-sync/internal/adapter"
	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store/memstore"
)

func newSides(t *testing.T) (local, remote *adapter.Store, orch *Orchestrator) {
	t.Helper()
	local = adapter.NewStore(memstore.New(), "local", true, zerolog.Nop())
	remote = adapter.NewStore(memstore.New(), "remote", true, zerolog.Nop())
	return local, remote, NewOrchestrator(local, remote, zerolog.Nop())
}

func collectionAt(id, name string, updated time.Time) *model.Collection {
	return &model.Collection{
		ID:        id,
		Name:      name,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func itemAt(id, collectionID, title string, updated time.Time) *model.Item {
	return &model.Item{
		ID:           id,
		CollectionID: collectionID,
		Title:        title,
		CreatedAt:    updated.Add(-time.Hour),
		UpdatedAt:    updated,
	}
}

func TestIntelligentMerge_GoingOnlineCopiesLocalOnlyRecords(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-1", "Groceries", base)))
	require.NoError(t, local.PutItem(ctx, itemAt("item-1", "col-1", "Milk", base)))
	require.NoError(t, local.PutItem(ctx, itemAt("item-2", "col-1", "Bread", base)))

	rep, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CollectionsWritten)
	assert.Equal(t, 2, rep.ItemsWritten)

	got, err := remote.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)

	items, err := remote.ListItemsByCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Local keeps its records; merge never deletes.
	locals, err := local.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, locals, 2)
}

func TestIntelligentMerge_NewerRemoteCopyReplacesLocal(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	at10 := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	at1005 := at10.Add(5 * time.Minute)

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-x", "Record X local", at10)))
	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-x", "Record X cloud", at1005)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)

	got, err := local.GetCollection(ctx, "col-x")
	require.NoError(t, err)
	assert.Equal(t, "Record X cloud", got.Name)
	assert.True(t, got.UpdatedAt.Equal(at1005))
}

func TestIntelligentMerge_NewerLocalCopyReplacesRemote(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-x", "fresh", base.Add(time.Minute))))
	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-x", "stale", base)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)

	got, err := remote.GetCollection(ctx, "col-x")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
}

func TestIntelligentMerge_DestinationOnlyRecordsStayPut(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-y", "Cloud only", base)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)

	_, err = local.GetCollection(ctx, "col-y")
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := remote.GetCollection(ctx, "col-y")
	require.NoError(t, err)
	assert.Equal(t, "Cloud only", got.Name)
}

func TestIntelligentMerge_ItemsConvergeWhenCollectionsAreEqual(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	// Same collection timestamp on both sides; only items differ.
	require.NoError(t, local.PutCollection(ctx, collectionAt("col-1", "Groceries", base)))
	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-1", "Groceries", base)))
	require.NoError(t, local.PutItem(ctx, itemAt("item-1", "col-1", "Milk", base)))
	require.NoError(t, remote.PutItem(ctx, itemAt("item-1", "col-1", "Oat milk", base.Add(time.Minute))))
	require.NoError(t, local.PutItem(ctx, itemAt("item-2", "col-1", "Bread", base)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)

	got, err := local.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", got.Title)

	copied, err := remote.GetItem(ctx, "item-2")
	require.NoError(t, err)
	assert.Equal(t, "Bread", copied.Title)
}

func TestIntelligentMerge_SecondPassWritesNothing(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-1", "Groceries", base)))
	require.NoError(t, local.PutItem(ctx, itemAt("item-1", "col-1", "Milk", base)))
	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-2", "Work", base)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)

	rep, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToRemote)
	require.NoError(t, err)
	assert.Zero(t, rep.CollectionsWritten)
	assert.Zero(t, rep.ItemsWritten)
}

func TestIntelligentMerge_GoingOfflinePullsRemoteOnlyRecords(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-1", "Cloud", base)))
	require.NoError(t, remote.PutItem(ctx, itemAt("item-1", "col-1", "Task", base)))
	require.NoError(t, local.PutCollection(ctx, collectionAt("col-2", "Local", base)))

	_, err := orch.Run(ctx, model.StrategyIntelligentMerge, DirectionToLocal)
	require.NoError(t, err)

	got, err := local.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Cloud", got.Name)
	_, err = local.GetItem(ctx, "item-1")
	require.NoError(t, err)

	// The local-only collection stays local; it does not travel to the
	// remote on a going-offline pass.
	_, err = remote.GetCollection(ctx, "col-2")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMigrateAll_OverwritesNewerRemoteCopies(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-x", "local version", base)))
	require.NoError(t, remote.PutCollection(ctx, collectionAt("col-x", "newer cloud version", base.Add(time.Hour))))
	require.NoError(t, local.PutItem(ctx, itemAt("item-1", "col-x", "From local", base)))

	rep, err := orch.Run(ctx, model.StrategyMigrateAll, DirectionToRemote)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.CollectionsWritten)
	assert.Equal(t, 1, rep.ItemsWritten)

	got, err := remote.GetCollection(ctx, "col-x")
	require.NoError(t, err)
	assert.Equal(t, "local version", got.Name)
}

func TestCloudOnly_MovesNothing(t *testing.T) {
	ctx := context.Background()
	local, remote, orch := newSides(t)
	base := time.Now().UTC()

	require.NoError(t, local.PutCollection(ctx, collectionAt("col-1", "Local", base)))

	rep, err := orch.Run(ctx, model.StrategyCloudOnly, DirectionToRemote)
	require.NoError(t, err)
	assert.Zero(t, rep.CollectionsWritten)
	assert.Zero(t, rep.ItemsWritten)

	remotes, err := remote.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, remotes)
}

func TestRun_RejectsUnknownStrategy(t *testing.T) {
	_, _, orch := newSides(t)
	_, err := orch.Run(context.Background(), model.MigrationStrategy("bogus"), DirectionToRemote)
	require.Error(t, err)
}

func TestBackground_RunsPeriodically(t *testing.T) {
	var runs atomic.Int32
	bg := NewBackground(10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bg.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestBackground_InterruptCancelsInFlightPass(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	var sawCancel atomic.Bool
	bg := NewBackground(10*time.Millisecond, func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		bg.Start(ctx)
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("pass never started")
	}
	bg.Interrupt()

	deadline := time.Now().Add(2 * time.Second)
	for !sawCancel.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, sawCancel.Load())
	cancel()
	<-done
}
