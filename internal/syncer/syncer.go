// Package syncer reconciles the local and remote stores on every
// authentication transition and on the background timer. The orchestrator
// never deletes records: intelligentMerge converges both sides toward the
// newest copy of each record, migrateAll force-pushes the local data set, and
// cloudOnly moves nothing.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rankstack/rankstack-sync/internal/model"
)

// Side is one store taking part in a sync pass. Merge carries newer-wins
// semantics, Put overwrites unconditionally.
type Side interface {
	ListCollections(ctx context.Context) ([]*model.Collection, error)
	ListItems(ctx context.Context) ([]*model.Item, error)
	MergeCollection(ctx context.Context, c *model.Collection) (bool, error)
	MergeItem(ctx context.Context, it *model.Item) (bool, error)
	PutCollection(ctx context.Context, c *model.Collection) error
	PutItem(ctx context.Context, it *model.Item) error
}

// Direction states which store is the source of travel for singleton
// records. Records present on both sides always converge toward the newer
// copy, regardless of direction.
type Direction int

const (
	// DirectionToRemote runs when going online: records known only to the
	// local store travel to the remote.
	DirectionToRemote Direction = iota + 1
	// DirectionToLocal runs when going offline: records known only to the
	// remote store travel to the local.
	DirectionToLocal
)

func (d Direction) String() string {
	switch d {
	case DirectionToRemote:
		return "to_remote"
	case DirectionToLocal:
		return "to_local"
	default:
		return "unknown"
	}
}

// Report summarises one pass.
type Report struct {
	Strategy            model.MigrationStrategy
	Direction           Direction
	CollectionsExamined int
	CollectionsWritten  int
	ItemsExamined       int
	ItemsWritten        int
	Duration            time.Duration
}

// Orchestrator drives sync passes between the two sides.
type Orchestrator struct {
	local  Side
	remote Side
	log    zerolog.Logger
}

func NewOrchestrator(local, remote Side, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{local: local, remote: remote, log: log}
}

// Run executes one pass with the given strategy and logs its outcome.
func (o *Orchestrator) Run(ctx context.Context, strategy model.MigrationStrategy, dir Direction) (*Report, error) {
	start := time.Now()

	var (
		rep *Report
		err error
	)
	switch strategy {
	case model.StrategyIntelligentMerge:
		rep, err = o.intelligentMerge(ctx, dir)
	case model.StrategyMigrateAll:
		rep, err = o.migrateAll(ctx)
	case model.StrategyCloudOnly:
		rep = &Report{Strategy: model.StrategyCloudOnly, Direction: dir}
	default:
		return nil, fmt.Errorf("unsupported migration strategy: %s", strategy)
	}
	if err != nil {
		return nil, err
	}
	rep.Duration = time.Since(start)

	o.log.Info().
		Str("strategy", string(rep.Strategy)).
		Str("direction", rep.Direction.String()).
		Int("collectionsExamined", rep.CollectionsExamined).
		Int("collectionsWritten", rep.CollectionsWritten).
		Int("itemsExamined", rep.ItemsExamined).
		Int("itemsWritten", rep.ItemsWritten).
		Dur("duration", rep.Duration).
		Msg("sync pass complete")
	return rep, nil
}

func (o *Orchestrator) sides(dir Direction) (source, dest Side) {
	if dir == DirectionToLocal {
		return o.remote, o.local
	}
	return o.local, o.remote
}

// listBoth loads both full data sets concurrently.
func (o *Orchestrator) listBoth(ctx context.Context, source, dest Side) (srcCols, dstCols []*model.Collection, srcItems, dstItems []*model.Item, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if srcCols, err = source.ListCollections(gctx); err != nil {
			return fmt.Errorf("list source collections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dstCols, err = dest.ListCollections(gctx); err != nil {
			return fmt.Errorf("list destination collections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if srcItems, err = source.ListItems(gctx); err != nil {
			return fmt.Errorf("list source items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dstItems, err = dest.ListItems(gctx); err != nil {
			return fmt.Errorf("list destination items: %w", err)
		}
		return nil
	})
	err = g.Wait()
	return
}

// intelligentMerge pairs records by ID. A record on both sides converges
// toward the newer updatedAt, whichever side holds it; a record only on the
// travel source is copied to the destination; a record only on the
// destination stays where it is. Items follow the same rule for every
// collection the pass touched.
func (o *Orchestrator) intelligentMerge(ctx context.Context, dir Direction) (*Report, error) {
	source, dest := o.sides(dir)
	srcCols, dstCols, srcItems, dstItems, err := o.listBoth(ctx, source, dest)
	if err != nil {
		return nil, err
	}

	rep := &Report{Strategy: model.StrategyIntelligentMerge, Direction: dir}

	dstColByID := make(map[string]*model.Collection, len(dstCols))
	for _, c := range dstCols {
		dstColByID[c.ID] = c
	}

	// Collection IDs whose items take part in the item phase.
	touched := make(map[string]bool, len(srcCols))

	for _, src := range srcCols {
		rep.CollectionsExamined++
		touched[src.ID] = true

		dst, ok := dstColByID[src.ID]
		if !ok {
			if _, err := dest.MergeCollection(ctx, src); err != nil {
				return nil, fmt.Errorf("copy collection %s: %w", src.ID, err)
			}
			rep.CollectionsWritten++
			continue
		}
		switch {
		case src.UpdatedAt.After(dst.UpdatedAt):
			written, err := dest.MergeCollection(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("merge collection %s: %w", src.ID, err)
			}
			if written {
				rep.CollectionsWritten++
			}
		case dst.UpdatedAt.After(src.UpdatedAt):
			written, err := source.MergeCollection(ctx, dst)
			if err != nil {
				return nil, fmt.Errorf("merge collection %s: %w", src.ID, err)
			}
			if written {
				rep.CollectionsWritten++
			}
		}
	}

	dstItemByID := make(map[string]*model.Item, len(dstItems))
	for _, it := range dstItems {
		dstItemByID[it.ID] = it
	}

	for _, src := range srcItems {
		if !touched[src.CollectionID] {
			continue
		}
		rep.ItemsExamined++

		dst, ok := dstItemByID[src.ID]
		if !ok {
			if _, err := dest.MergeItem(ctx, src); err != nil {
				return nil, fmt.Errorf("copy item %s: %w", src.ID, err)
			}
			rep.ItemsWritten++
			continue
		}
		switch {
		case src.UpdatedAt.After(dst.UpdatedAt):
			written, err := dest.MergeItem(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("merge item %s: %w", src.ID, err)
			}
			if written {
				rep.ItemsWritten++
			}
		case dst.UpdatedAt.After(src.UpdatedAt):
			written, err := source.MergeItem(ctx, dst)
			if err != nil {
				return nil, fmt.Errorf("merge item %s: %w", src.ID, err)
			}
			if written {
				rep.ItemsWritten++
			}
		}
	}

	return rep, nil
}

// migrateAll force-pushes every local record to the remote store, ignoring
// timestamps. The remote is treated as non-authoritative and overwritten.
func (o *Orchestrator) migrateAll(ctx context.Context) (*Report, error) {
	var (
		cols  []*model.Collection
		items []*model.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cols, err = o.local.ListCollections(gctx); err != nil {
			return fmt.Errorf("list local collections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = o.local.ListItems(gctx); err != nil {
			return fmt.Errorf("list local items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Strategy: model.StrategyMigrateAll, Direction: DirectionToRemote}
	for _, c := range cols {
		rep.CollectionsExamined++
		if err := o.remote.PutCollection(ctx, c); err != nil {
			return nil, fmt.Errorf("push collection %s: %w", c.ID, err)
		}
		rep.CollectionsWritten++
	}
	for _, it := range items {
		rep.ItemsExamined++
		if err := o.remote.PutItem(ctx, it); err != nil {
			return nil, fmt.Errorf("push item %s: %w", it.ID, err)
		}
		rep.ItemsWritten++
	}
	return rep, nil
}
