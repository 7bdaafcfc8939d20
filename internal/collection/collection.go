// Package collection implements the per-kind content collection: an ordered
// set of parent entities for the active space plus a lazily-populated,
// invalidatable cache of child items keyed by parent identifier.
//
// Every public mutation follows the same pattern: attempt persistence with
// retry, apply the equivalent in-memory change only on success, and surface
// the classified error otherwise. The one documented exception is the
// cross-kind reorder, whose optimistic path enters through ApplySortOrders.
//
// Mutations to one collection are expected to originate from a single
// logical caller at a time. Internal state is only ever replaced via
// whole-value swap, so a slice or map handed out earlier stays a consistent
// snapshot.
package collection

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/retry"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Entity constrains the parent entity pointer type. WithSortOrder must
// return a copy, never mutate the receiver.
type Entity[E any] interface {
	ID() string
	Position() int
	WithSortOrder(n int) E
}

// Item constrains the child item pointer type.
type Item interface {
	ID() string
	ParentID() string
}

// Collection owns the in-memory state for one content kind.
type Collection[E Entity[E], C Item] struct {
	kind  types.ContentKind
	repo  types.ContentRepository[E, C]
	retry *retry.Executor
	hub   *bus.Hub
	log   zerolog.Logger

	spaceID  string
	entities []E
	items    map[string][]C
	loading  bool
	lastErr  *apperr.Error
}

// New returns an empty collection for the given kind backed by repo.
func New[E Entity[E], C Item](
	kind types.ContentKind,
	repo types.ContentRepository[E, C],
	ex *retry.Executor,
	hub *bus.Hub,
	log zerolog.Logger,
) *Collection[E, C] {
	return &Collection[E, C]{
		kind:  kind,
		repo:  repo,
		retry: ex,
		hub:   hub,
		log:   log.With().Str("kind", string(kind)).Logger(),
		items: make(map[string][]C),
	}
}

// Kind returns the content kind this collection holds.
func (c *Collection[E, C]) Kind() types.ContentKind { return c.kind }

// ActiveSpace returns the space the collection was last loaded for.
func (c *Collection[E, C]) ActiveSpace() string { return c.spaceID }

// Loading reports whether a load is in flight.
func (c *Collection[E, C]) Loading() bool { return c.loading }

// Err returns the last recorded classified error, or nil.
func (c *Collection[E, C]) Err() *apperr.Error { return c.lastErr }

// ClearErr resets the observable error state.
func (c *Collection[E, C]) ClearErr() { c.lastErr = nil }

// Entities returns a snapshot copy of the current parent entities.
func (c *Collection[E, C]) Entities() []E {
	out := make([]E, len(c.entities))
	copy(out, c.entities)
	return out
}

// LoadForSpace replaces the in-memory list with the entities of the given
// space. On failure the list is cleared rather than left stale next to an
// error banner. The child cache is reset either way; cached items belong to
// the previous parent set.
func (c *Collection[E, C]) LoadForSpace(ctx context.Context, spaceID string) error {
	c.loading = true
	defer func() { c.loading = false }()

	loaded, err := retry.Do(ctx, c.retry, "load "+string(c.kind), func(ctx context.Context) ([]E, error) {
		return c.repo.GetBySpace(ctx, spaceID)
	})

	c.spaceID = spaceID
	c.items = make(map[string][]C)
	if err != nil {
		c.entities = nil
		return c.fail("load", err)
	}

	c.entities = loaded
	c.lastErr = nil
	c.publishChanged()
	return nil
}

// Create persists a new entity and appends the store's returned
// authoritative copy. Creation is not optimistic: identity and timestamps
// originate in the store, so memory is untouched on failure.
func (c *Collection[E, C]) Create(ctx context.Context, entity E) (E, error) {
	created, err := retry.Do(ctx, c.retry, "create "+string(c.kind), func(ctx context.Context) (E, error) {
		return c.repo.Create(ctx, entity)
	})
	if err != nil {
		var zero E
		return zero, c.fail("create", err)
	}

	next := make([]E, 0, len(c.entities)+1)
	next = append(next, c.entities...)
	next = append(next, created)
	c.entities = next
	c.lastErr = nil
	c.publishChanged()
	return created, nil
}

// Update persists a full entity replacement, then swaps the matching
// in-memory entry. A missing id is a no-op on the list: the entity may have
// been removed concurrently.
func (c *Collection[E, C]) Update(ctx context.Context, entity E) (E, error) {
	updated, err := retry.Do(ctx, c.retry, "update "+string(c.kind), func(ctx context.Context) (E, error) {
		return c.repo.Update(ctx, entity)
	})
	if err != nil {
		var zero E
		return zero, c.fail("update", err)
	}

	c.replace(updated)
	c.lastErr = nil
	c.publishChanged()
	return updated, nil
}

// Delete persists the removal, then drops the entity from memory and evicts
// any cached children for it.
func (c *Collection[E, C]) Delete(ctx context.Context, id string) error {
	err := retry.Run(ctx, c.retry, "delete "+string(c.kind), func(ctx context.Context) error {
		return c.repo.Delete(ctx, id)
	})
	if err != nil {
		return c.fail("delete", err)
	}

	next := make([]E, 0, len(c.entities))
	for _, e := range c.entities {
		if e.ID() != id {
			next = append(next, e)
		}
	}
	c.entities = next
	c.evictItems(id)
	c.lastErr = nil
	c.publishChanged()
	return nil
}

// LoadItems fetches the child items of a parent and overwrites the cache
// entry, so there is no staleness window once called. On failure the cache
// entry is evicted and the classified error recorded.
func (c *Collection[E, C]) LoadItems(ctx context.Context, parentID string) ([]C, error) {
	loaded, err := retry.Do(ctx, c.retry, "load items "+string(c.kind), func(ctx context.Context) ([]C, error) {
		return c.repo.GetItemsByParent(ctx, parentID)
	})
	if err != nil {
		c.evictItems(parentID)
		return nil, c.fail("load items", err)
	}

	next := c.copyItems()
	next[parentID] = loaded
	c.items = next
	c.lastErr = nil
	return loaded, nil
}

// CachedItems returns the cached children for a parent without fetching.
func (c *Collection[E, C]) CachedItems(parentID string) ([]C, bool) {
	items, ok := c.items[parentID]
	return items, ok
}

// CreateItem persists a new child item, invalidates the parent's cache
// entry, and refreshes the parent entity to pick up store-maintained counts.
func (c *Collection[E, C]) CreateItem(ctx context.Context, item C) (C, error) {
	created, err := retry.Do(ctx, c.retry, "create item "+string(c.kind), func(ctx context.Context) (C, error) {
		return c.repo.CreateItem(ctx, item)
	})
	if err != nil {
		var zero C
		return zero, c.fail("create item", err)
	}

	c.afterItemMutation(ctx, item.ParentID())
	return created, nil
}

// UpdateItem persists a child item change, invalidates the parent's cache
// entry, and refreshes the parent entity.
func (c *Collection[E, C]) UpdateItem(ctx context.Context, item C) (C, error) {
	updated, err := retry.Do(ctx, c.retry, "update item "+string(c.kind), func(ctx context.Context) (C, error) {
		return c.repo.UpdateItem(ctx, item)
	})
	if err != nil {
		var zero C
		return zero, c.fail("update item", err)
	}

	c.afterItemMutation(ctx, item.ParentID())
	return updated, nil
}

// DeleteItem persists a child item removal, invalidates the parent's cache
// entry, and refreshes the parent entity.
func (c *Collection[E, C]) DeleteItem(ctx context.Context, itemID, parentID string) error {
	err := retry.Run(ctx, c.retry, "delete item "+string(c.kind), func(ctx context.Context) error {
		return c.repo.DeleteItem(ctx, itemID, parentID)
	})
	if err != nil {
		return c.fail("delete item", err)
	}

	c.afterItemMutation(ctx, parentID)
	return nil
}

// ReorderItems persists a bulk child sort-order update and invalidates the
// parent's cache entry. The cache is not repopulated; the next LoadItems
// fetches fresh.
func (c *Collection[E, C]) ReorderItems(ctx context.Context, parentID string, items []C) error {
	err := retry.Run(ctx, c.retry, "reorder items "+string(c.kind), func(ctx context.Context) error {
		return c.repo.UpdateItemSortOrders(ctx, parentID, items)
	})
	if err != nil {
		return c.fail("reorder items", err)
	}

	c.evictItems(parentID)
	c.lastErr = nil
	c.publishChanged()
	return nil
}

// ApplySortOrders swaps in updated entity copies and re-sorts the list by
// position. This is the optimistic phase of the cross-kind reorder: it runs
// before any persistence and is never rolled back.
func (c *Collection[E, C]) ApplySortOrders(updated []E) {
	if len(updated) == 0 {
		return
	}

	byID := make(map[string]E, len(updated))
	for _, e := range updated {
		byID[e.ID()] = e
	}

	next := make([]E, len(c.entities))
	for i, e := range c.entities {
		if repl, ok := byID[e.ID()]; ok {
			next[i] = repl
		} else {
			next[i] = e
		}
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].Position() < next[j].Position()
	})
	c.entities = next
	c.publishChanged()
}

// PersistSortOrder writes one entity's sort order through retry without
// touching memory; the optimistic state applied earlier stands regardless
// of the outcome.
func (c *Collection[E, C]) PersistSortOrder(ctx context.Context, entity E) error {
	_, err := retry.Do(ctx, c.retry, "persist order "+string(c.kind), func(ctx context.Context) (E, error) {
		return c.repo.Update(ctx, entity)
	})
	if err != nil {
		classified := apperr.Classify("persist order", err)
		c.lastErr = classified
		c.publishError("persist order")
		return classified
	}
	return nil
}

// replace swaps the entity with a matching id into a fresh slice.
func (c *Collection[E, C]) replace(entity E) {
	next := make([]E, len(c.entities))
	copy(next, c.entities)
	for i, e := range next {
		if e.ID() == entity.ID() {
			next[i] = entity
			break
		}
	}
	c.entities = next
}

// afterItemMutation invalidates the parent's cached items and refreshes the
// parent entity. The item mutation itself already succeeded, so a refresh
// failure lands in the collection's own error state instead.
func (c *Collection[E, C]) afterItemMutation(ctx context.Context, parentID string) {
	c.evictItems(parentID)

	parent, err := retry.Do(ctx, c.retry, "refresh "+string(c.kind), func(ctx context.Context) (E, error) {
		return c.repo.GetByID(ctx, parentID)
	})
	if err != nil {
		classified := apperr.Classify("refresh", err)
		c.lastErr = classified
		c.log.Warn().Err(classified).Str("parent_id", parentID).Msg("parent refresh failed after item mutation")
		c.publishError("refresh")
		c.publishChanged()
		return
	}

	c.replace(parent)
	c.lastErr = nil
	c.publishChanged()
}

// evictItems removes the cached children for a parent via map swap.
func (c *Collection[E, C]) evictItems(parentID string) {
	if _, ok := c.items[parentID]; !ok {
		return
	}
	next := c.copyItems()
	delete(next, parentID)
	c.items = next
}

func (c *Collection[E, C]) copyItems() map[string][]C {
	next := make(map[string][]C, len(c.items))
	for k, v := range c.items {
		next[k] = v
	}
	return next
}

// fail records and returns the classified error for op.
func (c *Collection[E, C]) fail(op string, err error) *apperr.Error {
	classified := apperr.Classify(op, err)
	c.lastErr = classified
	c.publishError(op)
	return classified
}

func (c *Collection[E, C]) publishChanged() {
	c.hub.Publish(bus.TopicContentChanged, bus.ContentChangedEvent{
		Kind:    c.kind,
		SpaceID: c.spaceID,
	})
}

func (c *Collection[E, C]) publishError(op string) {
	c.hub.Publish(bus.TopicContentError, bus.ContentErrorEvent{
		Kind:      c.kind,
		Operation: op,
	})
}
