package mirror

import (
	"context"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// Op identifies the remote write a Job replays.
type Op int

const (
	OpSaveCollection Op = iota
	OpUpdateCollection
	OpDeleteCollection
	OpSaveItem
	OpUpdateItem
	OpDeleteItem
	OpClearItems
	OpClearCollections
)

func (o Op) String() string {
	switch o {
	case OpSaveCollection:
		return "save_collection"
	case OpUpdateCollection:
		return "update_collection"
	case OpDeleteCollection:
		return "delete_collection"
	case OpSaveItem:
		return "save_item"
	case OpUpdateItem:
		return "update_item"
	case OpDeleteItem:
		return "delete_item"
	case OpClearItems:
		return "clear_items"
	case OpClearCollections:
		return "clear_collections"
	default:
		return "unknown"
	}
}

// Job is one local write to replay against the remote store. Key selects the
// shard; jobs sharing a key run in submission order.
type Job struct {
	Op         Op
	Key        string
	Collection *model.Collection
	Item       *model.Item
}

// Applier replays jobs on the remote side. Implementations must treat
// already-applied jobs as success so replays stay idempotent.
type Applier interface {
	Apply(ctx context.Context, job *Job) error
}
