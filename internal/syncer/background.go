package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Background runs a sync pass on a fixed interval. The pass itself decides
// whether there is anything to do; Interrupt cancels an in-flight pass so a
// mode transition never races a background merge.
type Background struct {
	interval time.Duration
	run      func(ctx context.Context) error
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBackground(interval time.Duration, run func(ctx context.Context) error, log zerolog.Logger) *Background {
	return &Background{interval: interval, run: run, log: log}
}

// Start blocks until ctx is cancelled, invoking the pass every interval.
func (b *Background) Start(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pass(ctx)
		}
	}
}

func (b *Background) pass(ctx context.Context) {
	pctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.cancel = nil
		b.mu.Unlock()
		cancel()
	}()

	if err := b.run(pctx); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Warn().Err(err).Msg("background sync pass failed")
	}
}

// Interrupt cancels the in-flight pass, if any. Safe to call at any time.
func (b *Background) Interrupt() {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()
}
