// Package factory assembles the persistence runtime from configuration:
// store drivers, adapters, mirror queue, health monitor, sync orchestrator
// and the coordinator on top.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rankstack/rankstack-sync/internal/adapter"
	"github.com/rankstack/rankstack-sync/internal/config"
	"github.com/rankstack/rankstack-sync/internal/coordinator"
	"github.com/rankstack/rankstack-sync/internal/health"
	"github.com/rankstack/rankstack-sync/internal/mirror"
	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
	"github.com/rankstack/rankstack-sync/internal/store/memstore"
	"github.com/rankstack/rankstack-sync/internal/store/postgres"
	"github.com/rankstack/rankstack-sync/internal/store/restapi"
	"github.com/rankstack/rankstack-sync/internal/store/sqlite"
	"github.com/rankstack/rankstack-sync/internal/syncer"
)

// NewLocalStore builds the always-available local store.
func NewLocalStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.LocalDriver {
	case config.LocalDriverSQLite:
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store at %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite local store ready")
		return st, nil
	case config.LocalDriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown LOCAL_DRIVER: %s", cfg.LocalDriver)
	}
}

// NewRemoteStore builds the optional remote store. Returns (nil, nil) when
// no remote driver is configured.
func NewRemoteStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.RemoteDriver {
	case config.RemoteDriverNone:
		return nil, nil
	case config.RemoteDriverPostgres:
		st, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info().Msg("postgres remote store ready")
		return st, nil
	case config.RemoteDriverRest:
		log.Info().Str("url", cfg.RemoteAPIURL).Msg("rest remote store configured")
		return restapi.New(cfg.RemoteAPIURL, cfg.SyncTimeout), nil
	default:
		return nil, fmt.Errorf("unknown REMOTE_DRIVER: %s", cfg.RemoteDriver)
	}
}

// Runtime is the assembled persistence stack. Start launches its background
// goroutines; Close tears the stack down in dependency order.
type Runtime struct {
	Config      *config.Config
	Coordinator *coordinator.Coordinator

	// Queue and Monitor are nil when no remote store is configured.
	Queue   *mirror.Queue
	Monitor *health.Monitor

	// LocalPing probes the local store; nil for the in-memory driver.
	LocalPing func(ctx context.Context) error

	log     zerolog.Logger
	closers []func() error
}

// NewRuntime wires the full stack from configuration.
func NewRuntime(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, log: log}

	localBacking, err := NewLocalStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if c, ok := localBacking.(interface{ Close() error }); ok {
		rt.closers = append(rt.closers, c.Close)
	}
	if p, ok := localBacking.(health.HealthPinger); ok {
		rt.LocalPing = p.HealthPing
	}

	local := adapter.NewStore(localBacking, "local", cfg.EnableDeduplication, log)

	remoteBacking, err := NewRemoteStore(ctx, cfg, log)
	if err != nil {
		rt.closeAll()
		return nil, err
	}

	var (
		remote *adapter.Remote
		orch   *syncer.Orchestrator
	)
	if remoteBacking != nil {
		if c, ok := remoteBacking.(interface{ Close() error }); ok {
			rt.closers = append(rt.closers, c.Close)
		}

		remoteSide := adapter.NewStore(remoteBacking, "remote", cfg.EnableDeduplication, log)
		applier := adapter.NewApplier(remoteSide, cfg.SyncTimeout)
		rt.Queue = mirror.NewQueue(applier, mirror.Config{
			MaxAttempts: cfg.MaxRetries,
			// Exhausted mirror retries mean the remote stopped answering.
			// The health monitor flips the flag back on.
			ErrorHandler: func(error) {
				if remote != nil {
					remote.SetAvailable(false)
				}
			},
			Log: log,
		})

		remote = adapter.NewRemote(remoteSide, local, rt.Queue, cfg.SyncTimeout, log)
		orch = syncer.NewOrchestrator(local, remoteSide, log)

		pinger, ok := remoteBacking.(health.HealthPinger)
		if !ok {
			rt.closeAll()
			return nil, fmt.Errorf("remote driver %s exposes no health probe", cfg.RemoteDriver)
		}
		rt.Monitor = health.NewMonitor(pinger, remote, log, cfg.HealthProbeTimeout)
	}

	strategy, err := model.ParseMigrationStrategy(cfg.DefaultStrategy)
	if err != nil {
		rt.closeAll()
		return nil, err
	}

	params := coordinator.Params{
		Local:           local,
		Remote:          remote,
		Orchestrator:    orch,
		DefaultStrategy: strategy,
		Log:             log,
	}
	if cfg.EnableBackgroundSync && remote != nil {
		params.SyncInterval = cfg.SyncInterval
	}
	rt.Coordinator = coordinator.New(params)
	return rt, nil
}

// Start launches the health monitor and background sync loops. They stop
// when ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) {
	if r.Monitor != nil {
		go r.Monitor.Start(ctx, r.Config.HealthInterval)
	}
	go r.Coordinator.RunBackgroundSync(ctx)
}

// Close drains the mirror queue, then closes the store drivers.
func (r *Runtime) Close() error {
	var firstErr error
	if r.Queue != nil {
		if err := r.Queue.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.closeAll(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (r *Runtime) closeAll() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
