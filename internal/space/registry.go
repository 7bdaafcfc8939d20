// Package space owns the set of workspaces, the currently selected
// workspace, and the durable selection preference.
package space

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/retry"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Registry holds the loaded spaces and the current selection. Mutations are
// expected from one logical caller at a time; state is replaced via
// whole-value swap so held snapshots stay consistent.
type Registry struct {
	repo  types.SpaceRepository
	prefs types.Preferences
	retry *retry.Executor
	hub   *bus.Hub
	log   zerolog.Logger

	spaces  []*types.Space
	current *types.Space
	loading bool
	lastErr *apperr.Error
}

// NewRegistry returns an empty registry backed by repo and prefs.
func NewRegistry(repo types.SpaceRepository, prefs types.Preferences, ex *retry.Executor, hub *bus.Hub, log zerolog.Logger) *Registry {
	return &Registry{
		repo:  repo,
		prefs: prefs,
		retry: ex,
		hub:   hub,
		log:   log.With().Str("component", "spaces").Logger(),
	}
}

// Spaces returns a snapshot copy of the loaded spaces.
func (r *Registry) Spaces() []*types.Space {
	out := make([]*types.Space, len(r.spaces))
	copy(out, r.spaces)
	return out
}

// Current returns the currently selected space, or nil.
func (r *Registry) Current() *types.Space { return r.current }

// Loading reports whether a load is in flight.
func (r *Registry) Loading() bool { return r.loading }

// Err returns the last recorded classified error, or nil.
func (r *Registry) Err() *apperr.Error { return r.lastErr }

// Load fetches the spaces, then restores the selection if none is set:
// a persisted id found among the loaded spaces is selected; a dangling
// persisted id is cleared and the first loaded space selected; an absent or
// unreadable persisted value also falls back to the first loaded space.
// Selection is never left unset while spaces exist.
func (r *Registry) Load(ctx context.Context, includeArchived bool) error {
	r.loading = true
	defer func() { r.loading = false }()

	loaded, err := retry.Do(ctx, r.retry, "load spaces", func(ctx context.Context) ([]*types.Space, error) {
		return r.repo.GetSpaces(ctx, includeArchived)
	})
	if err != nil {
		r.spaces = nil
		return r.fail("load spaces", err)
	}

	r.spaces = loaded
	r.lastErr = nil
	r.hub.Publish(bus.TopicSpacesChanged, nil)

	if r.current == nil {
		r.restoreSelection()
	}
	return nil
}

// restoreSelection picks the current space from the persisted preference,
// falling back to the first loaded space on any miss or failure. Restoring
// does not write the preference; only user actions do.
func (r *Registry) restoreSelection() {
	persisted, err := r.prefs.LastSelectedSpaceID()
	if err != nil {
		r.log.Warn().Err(err).Msg("reading persisted selection failed, falling back to first space")
		r.selectFirst()
		return
	}

	if persisted != "" {
		if s := r.find(persisted); s != nil {
			r.setCurrent(s)
			return
		}
		// Dangling reference to a space that no longer exists.
		if err := r.prefs.ClearLastSelectedSpaceID(); err != nil {
			r.log.Warn().Err(err).Str("space_id", persisted).Msg("clearing stale selection failed")
		}
		r.hub.Publish(bus.TopicSelectionCleared, nil)
	}
	r.selectFirst()
}

// Add persists a new space, appends it, and makes it current; new spaces
// always become the selection, and the selection is persisted.
func (r *Registry) Add(ctx context.Context, s *types.Space) (*types.Space, error) {
	created, err := retry.Do(ctx, r.retry, "create space", func(ctx context.Context) (*types.Space, error) {
		return r.repo.CreateSpace(ctx, s)
	})
	if err != nil {
		return nil, r.fail("create space", err)
	}

	next := make([]*types.Space, 0, len(r.spaces)+1)
	next = append(next, r.spaces...)
	next = append(next, created)
	r.spaces = next
	r.lastErr = nil
	r.hub.Publish(bus.TopicSpacesChanged, nil)

	r.setCurrent(created)
	r.persistSelection(created.SpaceID)
	return created, nil
}

// Update persists a full space replacement and swaps it into the list. If
// it is the current space, the current reference is swapped too. Archiving
// is an update; it intentionally leaves the persisted selection in place so
// an archived space can be restored by a later load with includeArchived.
func (r *Registry) Update(ctx context.Context, s *types.Space) (*types.Space, error) {
	updated, err := retry.Do(ctx, r.retry, "update space", func(ctx context.Context) (*types.Space, error) {
		return r.repo.UpdateSpace(ctx, s)
	})
	if err != nil {
		return nil, r.fail("update space", err)
	}

	r.replace(updated)
	if r.current != nil && r.current.SpaceID == updated.SpaceID {
		r.current = updated
	}
	r.lastErr = nil
	r.hub.Publish(bus.TopicSpacesChanged, nil)
	return updated, nil
}

// Archive soft-deletes a space via Update.
func (r *Registry) Archive(ctx context.Context, id string) (*types.Space, error) {
	s := r.find(id)
	if s == nil {
		return nil, r.fail("archive space", apperr.NotFound("space", id))
	}
	return r.Update(ctx, s.Archived())
}

// Delete hard-deletes a space. The current space cannot be deleted; that is
// a terminal validation error and no persistence is attempted. The persisted
// selection is cleared only if it pointed at the deleted id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if r.current != nil && r.current.SpaceID == id {
		return r.fail("delete space", apperr.InvalidFormat("space_id", "the currently selected space cannot be deleted"))
	}

	err := retry.Run(ctx, r.retry, "delete space", func(ctx context.Context) error {
		return r.repo.DeleteSpace(ctx, id)
	})
	if err != nil {
		return r.fail("delete space", err)
	}

	next := make([]*types.Space, 0, len(r.spaces))
	for _, s := range r.spaces {
		if s.SpaceID != id {
			next = append(next, s)
		}
	}
	r.spaces = next
	r.lastErr = nil
	r.hub.Publish(bus.TopicSpacesChanged, nil)

	if persisted, err := r.prefs.LastSelectedSpaceID(); err == nil && persisted == id {
		if err := r.prefs.ClearLastSelectedSpaceID(); err != nil {
			r.log.Warn().Err(err).Str("space_id", id).Msg("clearing selection of deleted space failed")
		}
		r.hub.Publish(bus.TopicSelectionCleared, nil)
	}
	return nil
}

// SwitchTo selects a loaded space and persists the selection. Selection
// persistence is best-effort: a write failure is logged and the in-memory
// switch stands.
func (r *Registry) SwitchTo(ctx context.Context, id string) error {
	s := r.find(id)
	if s == nil {
		return r.fail("switch space", apperr.NotFound("space", id))
	}

	r.setCurrent(s)
	r.persistSelection(id)
	return nil
}

// ItemCount returns the authoritative item count for a space straight from
// the repository.
func (r *Registry) ItemCount(ctx context.Context, id string) (int, error) {
	count, err := retry.Do(ctx, r.retry, "count items", func(ctx context.Context) (int, error) {
		return r.repo.GetItemCount(ctx, id)
	})
	if err != nil {
		return 0, r.fail("count items", err)
	}
	return count, nil
}

// IncrementItemCount bumps the stored counter, then reconciles against the
// authoritative space record. Incremental counters are never trusted
// without that re-fetch.
func (r *Registry) IncrementItemCount(ctx context.Context, id string) error {
	err := retry.Run(ctx, r.retry, "increment count", func(ctx context.Context) error {
		return r.repo.IncrementItemCount(ctx, id)
	})
	if err != nil {
		return r.fail("increment count", err)
	}
	r.reconcile(ctx, id)
	return nil
}

// DecrementItemCount lowers the stored counter, then reconciles against the
// authoritative space record.
func (r *Registry) DecrementItemCount(ctx context.Context, id string) error {
	err := retry.Run(ctx, r.retry, "decrement count", func(ctx context.Context) error {
		return r.repo.DecrementItemCount(ctx, id)
	})
	if err != nil {
		return r.fail("decrement count", err)
	}
	r.reconcile(ctx, id)
	return nil
}

// reconcile re-fetches the authoritative space record after a counter
// mutation. The mutation already succeeded, so a fetch failure is recorded
// in the registry's error state rather than returned.
func (r *Registry) reconcile(ctx context.Context, id string) {
	s, err := retry.Do(ctx, r.retry, "refresh space", func(ctx context.Context) (*types.Space, error) {
		return r.repo.GetSpaceByID(ctx, id)
	})
	if err != nil {
		classified := apperr.Classify("refresh space", err)
		r.lastErr = classified
		r.log.Warn().Err(classified).Str("space_id", id).Msg("space refresh failed after count mutation")
		return
	}

	r.replace(s)
	if r.current != nil && r.current.SpaceID == s.SpaceID {
		r.current = s
	}
	r.hub.Publish(bus.TopicSpacesChanged, nil)
}

func (r *Registry) find(id string) *types.Space {
	for _, s := range r.spaces {
		if s.SpaceID == id {
			return s
		}
	}
	return nil
}

func (r *Registry) replace(updated *types.Space) {
	next := make([]*types.Space, len(r.spaces))
	copy(next, r.spaces)
	for i, s := range next {
		if s.SpaceID == updated.SpaceID {
			next[i] = updated
			break
		}
	}
	r.spaces = next
}

func (r *Registry) setCurrent(s *types.Space) {
	r.current = s
	r.hub.Publish(bus.TopicSpaceSelected, bus.SpaceSelectedEvent{SpaceID: s.SpaceID})
}

func (r *Registry) selectFirst() {
	if len(r.spaces) == 0 {
		r.current = nil
		return
	}
	r.setCurrent(r.spaces[0])
}

// persistSelection writes the selection preference, logging failures
// without reverting the in-memory selection.
func (r *Registry) persistSelection(id string) {
	if err := r.prefs.SetLastSelectedSpaceID(id); err != nil {
		r.log.Warn().Err(err).Str("space_id", id).Msg("persisting selection failed")
	}
}

func (r *Registry) fail(op string, err error) *apperr.Error {
	classified := apperr.Classify(op, err)
	r.lastErr = classified
	return classified
}
