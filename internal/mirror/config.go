package mirror

import (
	"time"

	"github.com/rs/zerolog"
)

// Config tunes the queue. Zero values pick the defaults below.
type Config struct {
	// Shards is the number of worker goroutines / FIFO lanes.
	Shards int
	// QueueSize is the buffered capacity of each shard.
	QueueSize int
	// EnqueueTimeout bounds how long Submit blocks on a full shard.
	EnqueueTimeout time.Duration
	// MaxAttempts caps total tries per job (first run included).
	MaxAttempts int
	// BaseBackoff is the initial retry delay; it doubles up to MaxInterval.
	BaseBackoff time.Duration
	MaxInterval time.Duration

	// ErrorHandler receives errors from jobs that exhausted their retries or
	// failed irrecoverably. Optional.
	ErrorHandler func(error)

	Log zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 20 * time.Second
	}
	return c
}
