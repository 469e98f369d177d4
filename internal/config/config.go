package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// Local and remote driver names accepted by the factory.
const (
	LocalDriverSQLite = "sqlite"
	LocalDriverMemory = "memory"

	RemoteDriverNone     = "none"
	RemoteDriverPostgres = "postgres"
	RemoteDriverRest     = "rest"
)

// Config holds the configuration for the sync service.
// Environment variables are parsed from the RANKSTACK_SYNC_ prefix,
// e.g. RANKSTACK_SYNC_HTTP_PORT, RANKSTACK_SYNC_POSTGRES_DSN.
type Config struct {
	// Coordinator behaviour
	DefaultMode          string        `envconfig:"DEFAULT_MODE" default:"local_first"`
	DefaultStrategy      string        `envconfig:"DEFAULT_STRATEGY" default:"intelligent_merge"`
	EnableBackgroundSync bool          `envconfig:"ENABLE_BACKGROUND_SYNC" default:"true"`
	EnableDeduplication  bool          `envconfig:"ENABLE_DEDUPLICATION" default:"true"`
	SyncTimeout          time.Duration `envconfig:"SYNC_TIMEOUT" default:"10s"`
	SyncInterval         time.Duration `envconfig:"SYNC_INTERVAL" default:"5m"`
	MaxRetries           int           `envconfig:"MAX_RETRIES" default:"3"`

	// Local store (always available)
	LocalDriver string `envconfig:"LOCAL_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/rankstack.db"`

	// Remote store (optional)
	RemoteDriver string `envconfig:"REMOTE_DRIVER" default:"none"`
	PostgresDSN  string `envconfig:"POSTGRES_DSN" default:""`
	RemoteAPIURL string `envconfig:"REMOTE_API_URL" default:""`

	// Health probing of the remote store
	HealthInterval     time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
	HealthProbeTimeout time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"2s"`

	// HTTP surface
	HTTPPort int `envconfig:"HTTP_PORT" default:"11600"`

	DebugLogging bool `envconfig:"DEBUG_LOGGING" default:"false"`
}

// New creates a Config by parsing RANKSTACK_SYNC_-prefixed environment
// variables and validating the result.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RANKSTACK_SYNC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks mode/strategy spellings and driver pairings.
func (c *Config) Validate() error {
	if _, err := model.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("unsupported DEFAULT_MODE: %s", c.DefaultMode)
	}
	if _, err := model.ParseMigrationStrategy(c.DefaultStrategy); err != nil {
		return fmt.Errorf("unsupported DEFAULT_STRATEGY: %s", c.DefaultStrategy)
	}

	switch c.LocalDriver {
	case LocalDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite local driver")
		}
	case LocalDriverMemory:
	default:
		return fmt.Errorf("unsupported LOCAL_DRIVER: %s", c.LocalDriver)
	}

	switch c.RemoteDriver {
	case RemoteDriverNone:
		if c.DefaultMode == string(model.ModeCloudFirst) {
			return fmt.Errorf("DEFAULT_MODE cloud_first requires a remote driver")
		}
	case RemoteDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres remote driver")
		}
	case RemoteDriverRest:
		if c.RemoteAPIURL == "" {
			return fmt.Errorf("REMOTE_API_URL is required for the rest remote driver")
		}
	default:
		return fmt.Errorf("unsupported REMOTE_DRIVER: %s", c.RemoteDriver)
	}

	if c.SyncTimeout <= 0 {
		return fmt.Errorf("SYNC_TIMEOUT must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	return nil
}

// HasRemote reports whether a remote driver is configured.
func (c *Config) HasRemote() bool { return c.RemoteDriver != RemoteDriverNone }

// GetHTTPAddr returns the HTTP server listen address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// NewForTesting creates a config for tests: in-memory local store, no
// remote, background sync off, short timeouts.
func NewForTesting() *Config {
	return &Config{
		DefaultMode:          string(model.ModeLocalFirst),
		DefaultStrategy:      string(model.StrategyIntelligentMerge),
		EnableBackgroundSync: false,
		EnableDeduplication:  true,
		SyncTimeout:          2 * time.Second,
		SyncInterval:         time.Minute,
		MaxRetries:           2,
		LocalDriver:          LocalDriverMemory,
		RemoteDriver:         RemoteDriverNone,
		HealthInterval:       time.Second,
		HealthProbeTimeout:   time.Second,
		HTTPPort:             11600,
	}
}
