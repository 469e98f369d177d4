// Package syncservice boots the sync service: configuration, persistence
// runtime, HTTP surface and graceful shutdown.
package syncservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	apihttp "github.com/rankstack/rankstack-sync/internal/api/http"
	"github.com/rankstack/rankstack-sync/internal/config"
	"github.com/rankstack/rankstack-sync/internal/factory"
	"github.com/rankstack/rankstack-sync/internal/logger"
	"github.com/rankstack/rankstack-sync/internal/model"
)

// Run starts the sync service HTTP server and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		logger.New("sync-service").Error().Err(err).Msg("failed to load configuration")
		return err
	}

	log := logger.New("sync-service")
	if cfg.DebugLogging {
		log = logger.NewDebug("sync-service")
	}

	log.Info().
		Str("default_mode", cfg.DefaultMode).
		Str("local_driver", cfg.LocalDriver).
		Str("remote_driver", cfg.RemoteDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("sync service starting")

	ctx, stop := newServerContext()
	defer stop()

	rt, err := factory.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("failed to assemble persistence runtime")
		return err
	}
	defer func() { _ = rt.Close() }()

	rt.Start(ctx)

	if err := rt.Coordinator.Initialize(cfg.DefaultMode == string(model.ModeCloudFirst)); err != nil {
		log.Error().Stack().Err(err).Msg("coordinator initialization failed")
		return err
	}

	router := buildRouter(rt)
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("server forced to shutdown")
			return err
		}
		log.Info().Msg("server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func buildRouter(rt *factory.Runtime) http.Handler {
	params := apihttp.RouterParams{
		Coordinator:  rt.Coordinator,
		LocalPing:    rt.LocalPing,
		ProbeTimeout: rt.Config.HealthProbeTimeout,
	}
	if rt.Monitor != nil {
		params.RemoteAvailable = rt.Monitor.IsHealthy
	}
	return apihttp.NewRouter(params)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
