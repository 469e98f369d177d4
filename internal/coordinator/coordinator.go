// Package coordinator implements the persistence facade and its mode state
// machine. Every caller-visible operation routes to exactly one storage
// target: the local adapter in local-first mode, the remote composite in
// cloud-first mode. Authentication transitions run a full sync pass before
// the routing flag flips, so no caller observes a half-migrated view.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rankstack/rankstack-sync/internal/adapter"
	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/syncer"
)

// target is the per-mode routing destination.
type target interface {
	SaveCollection(ctx context.Context, c *model.Collection) (bool, error)
	GetCollection(ctx context.Context, id string) (*model.Collection, error)
	ListCollections(ctx context.Context) ([]*model.Collection, error)
	UpdateCollection(ctx context.Context, c *model.Collection) (*model.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	DeleteAllCollections(ctx context.Context) error
	SaveItem(ctx context.Context, it *model.Item) (bool, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context) ([]*model.Item, error)
	ListItemsByCollection(ctx context.Context, collectionID string) ([]*model.Item, error)
	UpdateItem(ctx context.Context, it *model.Item) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	DeleteAllItems(ctx context.Context) error
}

var (
	_ target = (*adapter.Store)(nil)
	_ target = (*adapter.Remote)(nil)
)

// Params carries the coordinator's collaborators. Remote and Orchestrator
// are nil when no remote store is configured; SyncInterval zero disables
// the background sync loop.
type Params struct {
	Local           *adapter.Store
	Remote          *adapter.Remote
	Orchestrator    *syncer.Orchestrator
	DefaultStrategy model.MigrationStrategy
	SyncInterval    time.Duration
	Log             zerolog.Logger
}

// Coordinator is the single entry point for all persistence operations.
type Coordinator struct {
	local           *adapter.Store
	remote          *adapter.Remote
	orch            *syncer.Orchestrator
	bg              *syncer.Background
	defaultStrategy model.MigrationStrategy
	log             zerolog.Logger

	// mu is the mode-transition guard: ordinary operations hold it shared
	// and may run concurrently; a transition holds it exclusively so it
	// completes before any later operation is dispatched.
	mu      sync.RWMutex
	mode    atomic.Value // model.Mode, written only under mu
	syncing atomic.Bool
}

func New(p Params) *Coordinator {
	c := &Coordinator{
		local:           p.Local,
		remote:          p.Remote,
		orch:            p.Orchestrator,
		defaultStrategy: p.DefaultStrategy,
		log:             p.Log,
	}
	c.mode.Store(model.ModeUninitialized)
	if p.SyncInterval > 0 && p.Remote != nil {
		c.bg = syncer.NewBackground(p.SyncInterval, c.backgroundPass, p.Log)
	}
	return c
}

// Mode returns the current routing mode without blocking on a transition.
func (c *Coordinator) Mode() model.Mode {
	return c.mode.Load().(model.Mode)
}

// Initialize moves the coordinator out of the uninitialized state. It is
// single-use per process lifetime; a second call fails.
func (c *Coordinator) Initialize(authenticated bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Mode() != model.ModeUninitialized {
		return model.ErrAlreadyInitialized
	}
	if authenticated && c.remote == nil {
		return fmt.Errorf("%w: cloud-first mode requires a configured remote store", model.ErrRemoteUnavailable)
	}

	mode := model.ModeLocalFirst
	if authenticated {
		mode = model.ModeCloudFirst
	}
	c.mode.Store(mode)
	c.log.Info().Str("mode", string(mode)).Msg("persistence coordinator initialized")
	return nil
}

// UpdateAuthenticationState transitions between local-first and cloud-first.
// The sync pass with the given strategy runs to completion before the mode
// flips; on pass failure the mode is left unchanged. An empty strategy
// selects the configured default. Transitioning to the current mode is a
// no-op.
func (c *Coordinator) UpdateAuthenticationState(ctx context.Context, authenticated bool, strategy model.MigrationStrategy) error {
	// Cancel any in-flight background pass first: it holds the guard shared
	// and would otherwise delay the transition behind a slow remote call.
	if c.bg != nil {
		c.bg.Interrupt()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.Mode()
	if cur == model.ModeUninitialized {
		return model.ErrNotInitialized
	}

	next := model.ModeLocalFirst
	if authenticated {
		next = model.ModeCloudFirst
	}
	if cur == next {
		return nil
	}
	if authenticated && c.remote == nil {
		return fmt.Errorf("%w: cloud-first mode requires a configured remote store", model.ErrRemoteUnavailable)
	}

	if strategy == "" {
		strategy = c.defaultStrategy
	}

	if c.remote != nil && c.orch != nil {
		dir := syncer.DirectionToRemote
		if !authenticated {
			dir = syncer.DirectionToLocal
		}

		c.syncing.Store(true)
		defer c.syncing.Store(false)

		// Queued mirror writes must land before the pass lists the remote,
		// or the pass would see a stale remote set.
		if err := c.remote.Drain(ctx); err != nil {
			c.log.Warn().Err(err).Msg("mirror queue drain incomplete before transition")
		}
		if _, err := c.orch.Run(ctx, strategy, dir); err != nil {
			return fmt.Errorf("authentication transition sync pass: %w", err)
		}
	}

	c.mode.Store(next)
	c.log.Info().
		Str("from", string(cur)).
		Str("to", string(next)).
		Str("strategy", string(strategy)).
		Msg("authentication state updated")
	return nil
}

// RunBackgroundSync blocks until ctx is cancelled, running periodic merge
// passes. It returns immediately when background sync is disabled.
func (c *Coordinator) RunBackgroundSync(ctx context.Context) {
	if c.bg == nil {
		return
	}
	c.bg.Start(ctx)
}

// backgroundPass converges both stores while cloud-first. Two directed
// passes make the merge effectively bidirectional: the first pushes
// local-only records up, the second pulls remote-only records down.
func (c *Coordinator) backgroundPass(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Mode() != model.ModeCloudFirst || c.orch == nil {
		return nil
	}
	// The health monitor owns re-probing a down remote; until it flips
	// the flag back, passes have nothing to talk to.
	if !c.remote.Available() {
		return nil
	}

	c.syncing.Store(true)
	defer c.syncing.Store(false)

	if err := c.remote.Drain(ctx); err != nil {
		c.log.Warn().Err(err).Msg("mirror queue drain incomplete before background pass")
	}
	if _, err := c.orch.Run(ctx, model.StrategyIntelligentMerge, syncer.DirectionToRemote); err != nil {
		return err
	}
	_, err := c.orch.Run(ctx, model.StrategyIntelligentMerge, syncer.DirectionToLocal)
	return err
}

// GetStats reports the coordinator's introspection snapshot. It never
// blocks on an in-flight transition.
func (c *Coordinator) GetStats() *model.Stats {
	mode := c.Mode()
	return &model.Stats{
		CurrentMode:     mode,
		IsAuthenticated: mode == model.ModeCloudFirst,
		Initialized:     mode != model.ModeUninitialized,
		Syncing:         c.syncing.Load(),
	}
}

// currentTarget resolves the routing destination for the current mode.
// Callers must hold mu shared.
func (c *Coordinator) currentTarget() (target, error) {
	switch c.Mode() {
	case model.ModeLocalFirst:
		return c.local, nil
	case model.ModeCloudFirst:
		return c.remote, nil
	default:
		return nil, model.ErrNotInitialized
	}
}

// storageErr classifies a target failure. Domain conditions the caller
// branches on (not found, duplicate, validation) pass through untouched;
// anything else is a genuine I/O failure and gets wrapped.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrDuplicateID) || model.IsValidation(err) {
		return err
	}
	return model.NewStorageError(op, err)
}
