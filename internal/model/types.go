package model

import (
	"fmt"
	"time"
)

// Mode is the routing state of the persistence coordinator.
type Mode string

const (
	ModeUninitialized Mode = "uninitialized"
	ModeLocalFirst    Mode = "local_first"
	ModeCloudFirst    Mode = "cloud_first"
)

// ParseMode converts a string form (config, API payloads) into a Mode.
// Uninitialized is not accepted; it is never a requestable state.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLocalFirst:
		return ModeLocalFirst, nil
	case ModeCloudFirst:
		return ModeCloudFirst, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// MigrationStrategy selects how records move between the two stores on an
// authentication-state transition.
type MigrationStrategy string

const (
	// StrategyIntelligentMerge keeps, per record, whichever copy has the
	// later last-modified timestamp. Never deletes.
	StrategyIntelligentMerge MigrationStrategy = "intelligent_merge"
	// StrategyMigrateAll pushes every local record to the remote store
	// unconditionally. Explicit "upload everything" action, never the default.
	StrategyMigrateAll MigrationStrategy = "migrate_all"
	// StrategyCloudOnly moves no data; only the mode flag changes.
	StrategyCloudOnly MigrationStrategy = "cloud_only"
)

// ParseMigrationStrategy converts a string form into a MigrationStrategy.
func ParseMigrationStrategy(s string) (MigrationStrategy, error) {
	switch MigrationStrategy(s) {
	case StrategyIntelligentMerge:
		return StrategyIntelligentMerge, nil
	case StrategyMigrateAll:
		return StrategyMigrateAll, nil
	case StrategyCloudOnly:
		return StrategyCloudOnly, nil
	}
	return "", fmt.Errorf("unknown migration strategy %q", s)
}

// Collection is a named group of items.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy safe to hand across goroutine boundaries.
func (c *Collection) Clone() *Collection {
	out := *c
	return &out
}

// Item is a single entry in a collection. Score is the prioritization
// engine's ranking value and is carried opaquely by this subsystem.
type Item struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collectionId"`
	Title        string    `json:"title"`
	Done         bool      `json:"done"`
	Score        *float64  `json:"score,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a copy with its own Score pointer.
func (i *Item) Clone() *Item {
	out := *i
	if i.Score != nil {
		s := *i.Score
		out.Score = &s
	}
	return &out
}

// Stats is the coordinator's introspection snapshot. Reading it has no
// side effects.
type Stats struct {
	CurrentMode     Mode `json:"currentMode"`
	IsAuthenticated bool `json:"isAuthenticated"`
	Initialized     bool `json:"initialized"`
	Syncing         bool `json:"syncing"`
}
