// Package engine is the composition root: it opens the local store and
// preferences, builds the retry executor and event hub, and wires the space
// registry, the three content collections, and the unified view together.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/collection"
	"github.com/mesh-intelligence/satchel/internal/content"
	"github.com/mesh-intelligence/satchel/internal/prefs"
	"github.com/mesh-intelligence/satchel/internal/retry"
	"github.com/mesh-intelligence/satchel/internal/space"
	"github.com/mesh-intelligence/satchel/internal/sqlite"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Options configures an Engine.
type Options struct {
	// ConfigDir holds prefs.yaml. Required.
	ConfigDir string
	// DataDir holds the database file. Required.
	DataDir string
	// Logger is the root logger; components attach their own context to it.
	Logger zerolog.Logger
}

// Engine owns the wired component graph. Open it once per process; the
// registry, collections, and view all share the engine's store, retry
// executor, and event hub.
type Engine struct {
	store *sqlite.Store
	hub   *bus.Hub
	log   zerolog.Logger

	spaces    *space.Registry
	taskLists *content.TaskListCollection
	refLists  *content.RefListCollection
	notes     *content.NoteCollection
	view      *content.View
}

// Open builds the component graph over a store in dataDir and preferences in
// configDir.
func Open(opts Options) (*Engine, error) {
	store, err := sqlite.Open(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	prefStore, err := prefs.Open(opts.ConfigDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	return New(store, prefStore, opts.Logger), nil
}

// New wires an engine over an already-open store and preferences. Tests use
// this to substitute either side.
func New(store *sqlite.Store, preferences types.Preferences, log zerolog.Logger) *Engine {
	hub := bus.New()
	ex := retry.New(log)

	taskLists := collection.New(types.KindTaskList, types.TaskListRepository(store.TaskLists()), ex, hub, log)
	refLists := collection.New(types.KindRefList, types.RefListRepository(store.RefLists()), ex, hub, log)
	notes := collection.New(types.KindNote, types.NoteRepository(store.Notes()), ex, hub, log)

	return &Engine{
		store:     store,
		hub:       hub,
		log:       log,
		spaces:    space.NewRegistry(store.Spaces(), preferences, ex, hub, log),
		taskLists: taskLists,
		refLists:  refLists,
		notes:     notes,
		view:      content.NewView(taskLists, refLists, notes, hub, log),
	}
}

// Close releases the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Hub returns the event hub for observers.
func (e *Engine) Hub() *bus.Hub { return e.hub }

// Spaces returns the space registry.
func (e *Engine) Spaces() *space.Registry { return e.spaces }

// TaskLists returns the task-list collection.
func (e *Engine) TaskLists() *content.TaskListCollection { return e.taskLists }

// RefLists returns the reference-list collection.
func (e *Engine) RefLists() *content.RefListCollection { return e.refLists }

// Notes returns the note collection.
func (e *Engine) Notes() *content.NoteCollection { return e.notes }

// View returns the unified content view.
func (e *Engine) View() *content.View { return e.view }

// Start loads the spaces, restores the selection, and loads content for the
// selected space. With no spaces yet, Start succeeds with nothing selected.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.spaces.Load(ctx, false); err != nil {
		return err
	}
	current := e.spaces.Current()
	if current == nil {
		return nil
	}
	return e.LoadSpace(ctx, current.SpaceID)
}

// LoadSpace loads all three collections for a space. Each kind loads
// independently; a failing kind clears its own list and the first failure is
// returned after all three have been attempted.
func (e *Engine) LoadSpace(ctx context.Context, spaceID string) error {
	var firstErr error
	if err := e.taskLists.LoadForSpace(ctx, spaceID); err != nil {
		firstErr = err
	}
	if err := e.refLists.LoadForSpace(ctx, spaceID); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.notes.LoadForSpace(ctx, spaceID); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// SwitchSpace selects a space and reloads content for it.
func (e *Engine) SwitchSpace(ctx context.Context, spaceID string) error {
	if err := e.spaces.SwitchTo(ctx, spaceID); err != nil {
		return err
	}
	return e.LoadSpace(ctx, spaceID)
}

// NewEntry describes parent-level content to create.
type NewEntry struct {
	Kind types.ContentKind
	Name string
	// Description applies to task and reference lists.
	Description string
	// Body and Pinned apply to notes.
	Body   string
	Pinned bool
}

// CreateEntry creates parent-level content of the given kind in a space and
// bumps the space's item counter. The counter bump follows the content write;
// its failure surfaces through the registry's error state, not here.
func (e *Engine) CreateEntry(ctx context.Context, spaceID string, draft NewEntry) (types.ContentEntry, error) {
	var entry types.ContentEntry

	switch draft.Kind {
	case types.KindTaskList:
		created, err := e.taskLists.Create(ctx, &types.TaskList{
			SpaceID:     spaceID,
			Name:        draft.Name,
			Description: draft.Description,
		})
		if err != nil {
			return types.ContentEntry{}, err
		}
		entry = types.EntryFromTaskList(created)
	case types.KindRefList:
		created, err := e.refLists.Create(ctx, &types.RefList{
			SpaceID:     spaceID,
			Name:        draft.Name,
			Description: draft.Description,
		})
		if err != nil {
			return types.ContentEntry{}, err
		}
		entry = types.EntryFromRefList(created)
	case types.KindNote:
		created, err := e.notes.Create(ctx, &types.Note{
			SpaceID: spaceID,
			Title:   draft.Name,
			Content: draft.Body,
			Pinned:  draft.Pinned,
		})
		if err != nil {
			return types.ContentEntry{}, err
		}
		entry = types.EntryFromNote(created)
	default:
		return types.ContentEntry{}, apperr.InvalidFormat("kind", fmt.Sprintf("unknown content kind %q", draft.Kind))
	}

	if err := e.spaces.IncrementItemCount(ctx, spaceID); err != nil {
		e.log.Warn().Err(err).Str("space_id", spaceID).Msg("item count increment failed after create")
	}
	return entry, nil
}

// DeleteEntry removes parent-level content of the given kind and lowers the
// space's item counter.
func (e *Engine) DeleteEntry(ctx context.Context, spaceID string, kind types.ContentKind, id string) error {
	var err error
	switch kind {
	case types.KindTaskList:
		err = e.taskLists.Delete(ctx, id)
	case types.KindRefList:
		err = e.refLists.Delete(ctx, id)
	case types.KindNote:
		err = e.notes.Delete(ctx, id)
	default:
		return apperr.InvalidFormat("kind", fmt.Sprintf("unknown content kind %q", kind))
	}
	if err != nil {
		return err
	}

	if err := e.spaces.DecrementItemCount(ctx, spaceID); err != nil {
		e.log.Warn().Err(err).Str("space_id", spaceID).Msg("item count decrement failed after delete")
	}
	return nil
}
