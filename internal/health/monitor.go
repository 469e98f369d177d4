// Package health tracks remote store reachability. The Monitor feeds the
// availability flag that decides whether reads hit the remote store and
// whether local writes are mirrored.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger is implemented by store drivers that can probe their backend.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// AvailabilitySink receives reachability updates (the cloud-first target).
type AvailabilitySink interface {
	SetAvailable(bool)
	Available() bool
}

// Monitor periodically probes the remote store and pushes the result into
// the sink.
type Monitor struct {
	pinger       HealthPinger
	sink         AvailabilitySink
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewMonitor creates a monitor. It starts unhealthy until the first
// successful probe.
func NewMonitor(pinger HealthPinger, sink AvailabilitySink, log zerolog.Logger, probeTimeout time.Duration) *Monitor {
	m := &Monitor{
		pinger:       pinger,
		sink:         sink,
		log:          log,
		probeTimeout: probeTimeout,
	}
	m.healthy.Store(0)
	return m
}

// Name returns the checker name.
func (m *Monitor) Name() string { return "remote-store" }

// IsHealthy returns the cached probe result (non-blocking).
func (m *Monitor) IsHealthy() bool { return m.healthy.Load() == 1 }

// Probe runs a single bounded health check and updates the sink.
func (m *Monitor) Probe(ctx context.Context) bool {
	to := m.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := m.pinger.HealthPing(checkCtx); err != nil {
		m.log.Error().Stack().
			Str("checker", m.Name()).
			Err(err).
			Msg("remote store health check failed")
		m.healthy.Store(0)
		m.sink.SetAvailable(false)
		return false
	}
	m.healthy.Store(1)
	m.sink.SetAvailable(true)
	return true
}

// Start begins periodic health checking and blocks until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
