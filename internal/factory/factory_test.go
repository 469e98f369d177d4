package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankstack/rankstack-sync/internal/config"
	"github.com/rankstack/rankstack-sync/internal/model"
)

func TestNewRuntime_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewForTesting()

	rt, err := NewRuntime(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	assert.Nil(t, rt.Queue)
	assert.Nil(t, rt.Monitor)
	assert.Nil(t, rt.LocalPing)

	require.NoError(t, rt.Coordinator.Initialize(false))
	now := time.Now().UTC()
	require.NoError(t, rt.Coordinator.SaveCollection(ctx, &model.Collection{
		ID: "col-1", Name: "Groceries", CreatedAt: now, UpdatedAt: now,
	}))

	cols, err := rt.Coordinator.ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, cols, 1)
}

func TestNewRuntime_SQLiteLocal(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewForTesting()
	cfg.LocalDriver = config.LocalDriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "rankstack.db")

	rt, err := NewRuntime(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	require.NotNil(t, rt.LocalPing)
	require.NoError(t, rt.LocalPing(ctx))

	require.NoError(t, rt.Coordinator.Initialize(false))
	now := time.Now().UTC()
	require.NoError(t, rt.Coordinator.SaveCollection(ctx, &model.Collection{
		ID: "col-1", Name: "Groceries", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, rt.Coordinator.VerifyPersistence(ctx, "col-1"))
}

func TestNewLocalStore_UnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.LocalDriver = "etcd"

	_, err := NewLocalStore(cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestNewRemoteStore_NoneIsNil(t *testing.T) {
	cfg := config.NewForTesting()

	st, err := NewRemoteStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, st)
}
