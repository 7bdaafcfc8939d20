package content

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Reorder moves the entry at oldIndex to newIndex within the filtered view
// and renumbers every affected entry to a dense sort order equal to its
// position. The move is applied to the in-memory collections and announced
// before any persistence call, keeping drag interactions instantaneous;
// the changed entities are then persisted concurrently.
//
// On partial persistence failure the optimistic in-memory state is kept,
// not rolled back: the engine favors perceived responsiveness and accepts
// local/remote divergence until the next successful load of the affected
// entity. Failures are aggregated into the returned error so the caller can
// react. A concurrent external write landing between the optimistic apply
// and the delayed persist goes undetected; there are no version stamps, and
// the next load of the space reconverges.
func (v *View) Reorder(ctx context.Context, filter types.ContentFilter, oldIndex, newIndex int) error {
	if !filter.Valid() {
		return apperr.InvalidFormat("filter", fmt.Sprintf("unknown filter %q", filter))
	}

	view := v.Filtered(filter)
	if oldIndex < 0 || oldIndex >= len(view) {
		return apperr.OutOfRange("oldIndex", 0, len(view)-1)
	}
	// newIndex is a pre-removal position; len(view) means past the last entry.
	if newIndex < 0 || newIndex > len(view) {
		return apperr.OutOfRange("newIndex", 0, len(view))
	}

	// Removing the source shifts every later position down by one.
	if newIndex > oldIndex {
		newIndex--
	}

	moved := view[oldIndex]
	view = append(view[:oldIndex], view[oldIndex+1:]...)
	view = append(view[:newIndex], append([]types.ContentEntry{moved}, view[newIndex:]...)...)

	var changed []types.ContentEntry
	for pos, entry := range view {
		if entry.SortOrder() != pos {
			changed = append(changed, entry.WithSortOrder(pos))
		}
	}
	if len(changed) == 0 {
		return nil
	}

	v.applyOptimistic(changed)

	// Persist all changed sort orders concurrently. The entities are
	// disjoint, so one failure neither cancels nor blocks the others; every
	// call is awaited and errors are collected.
	p := pool.New().WithErrors().WithContext(ctx)
	for _, entry := range changed {
		entry := entry
		p.Go(func(ctx context.Context) error {
			return v.persistEntry(ctx, entry)
		})
	}
	if err := p.Wait(); err != nil {
		v.log.Warn().Err(err).Int("changed", len(changed)).Msg("reorder persistence incomplete, keeping optimistic order")
		return fmt.Errorf("reorder persistence: %w", err)
	}
	return nil
}

// applyOptimistic pushes the renumbered copies into their collections, which
// swap state and notify observers.
func (v *View) applyOptimistic(changed []types.ContentEntry) {
	var taskLists []*types.TaskList
	var refLists []*types.RefList
	var notes []*types.Note

	for _, entry := range changed {
		switch entry.Kind {
		case types.KindTaskList:
			taskLists = append(taskLists, entry.TaskList)
		case types.KindRefList:
			refLists = append(refLists, entry.RefList)
		case types.KindNote:
			notes = append(notes, entry.Note)
		}
	}

	v.taskLists.ApplySortOrders(taskLists)
	v.refLists.ApplySortOrders(refLists)
	v.notes.ApplySortOrders(notes)
}

// persistEntry routes one changed entry to its collection's sort-order
// persistence path.
func (v *View) persistEntry(ctx context.Context, entry types.ContentEntry) error {
	switch entry.Kind {
	case types.KindTaskList:
		return v.taskLists.PersistSortOrder(ctx, entry.TaskList)
	case types.KindRefList:
		return v.refLists.PersistSortOrder(ctx, entry.RefList)
	case types.KindNote:
		return v.notes.PersistSortOrder(ctx, entry.Note)
	}
	return apperr.InvalidFormat("kind", fmt.Sprintf("unknown content kind %q", entry.Kind))
}
