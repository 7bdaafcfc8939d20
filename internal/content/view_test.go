package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/collection"
	"github.com/mesh-intelligence/satchel/internal/retry"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// memRepo is a minimal repository fake for view tests: collections load from
// bySpace and persist sort orders through update. Everything else is inert.
type memRepo[E any, C any] struct {
	mu      sync.Mutex
	bySpace func(spaceID string) ([]E, error)
	update  func(e E) (E, error)
	updates int
}

func (r *memRepo[E, C]) GetBySpace(ctx context.Context, spaceID string) ([]E, error) {
	return r.bySpace(spaceID)
}

func (r *memRepo[E, C]) GetByID(ctx context.Context, id string) (E, error) {
	var zero E
	return zero, types.ErrNotFound
}

func (r *memRepo[E, C]) Create(ctx context.Context, e E) (E, error) { return e, nil }

func (r *memRepo[E, C]) Update(ctx context.Context, e E) (E, error) {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
	if r.update != nil {
		return r.update(e)
	}
	return e, nil
}

func (r *memRepo[E, C]) Delete(ctx context.Context, id string) error { return nil }

func (r *memRepo[E, C]) GetItemsByParent(ctx context.Context, parentID string) ([]C, error) {
	return nil, nil
}

func (r *memRepo[E, C]) CreateItem(ctx context.Context, c C) (C, error) { return c, nil }
func (r *memRepo[E, C]) UpdateItem(ctx context.Context, c C) (C, error) { return c, nil }
func (r *memRepo[E, C]) DeleteItem(ctx context.Context, itemID, parentID string) error {
	return nil
}
func (r *memRepo[E, C]) UpdateItemSortOrders(ctx context.Context, parentID string, items []C) error {
	return nil
}

func (r *memRepo[E, C]) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

type viewFixture struct {
	view     *View
	taskRepo *memRepo[*types.TaskList, *types.TaskItem]
	refRepo  *memRepo[*types.RefList, *types.ListItem]
	noteRepo *memRepo[*types.Note, *types.NoteFragment]
}

// newViewFixture builds a view over six entries interleaved across kinds:
//
//	pos 0 tl-0, pos 1 tl-1, pos 2 rl-0, pos 3 rl-1, pos 4 n-0, pos 5 n-1
func newViewFixture(t *testing.T) *viewFixture {
	t.Helper()

	taskRepo := &memRepo[*types.TaskList, *types.TaskItem]{
		bySpace: func(string) ([]*types.TaskList, error) {
			return []*types.TaskList{
				{ListID: "tl-0", SpaceID: "s1", Name: "Groceries", Description: "weekly shop", SortOrder: 0},
				{ListID: "tl-1", SpaceID: "s1", Name: "Chores", SortOrder: 1},
			}, nil
		},
	}
	refRepo := &memRepo[*types.RefList, *types.ListItem]{
		bySpace: func(string) ([]*types.RefList, error) {
			return []*types.RefList{
				{ListID: "rl-0", SpaceID: "s1", Name: "Books", Description: "to read", SortOrder: 2},
				{ListID: "rl-1", SpaceID: "s1", Name: "Films", SortOrder: 3},
			}, nil
		},
	}
	noteRepo := &memRepo[*types.Note, *types.NoteFragment]{
		bySpace: func(string) ([]*types.Note, error) {
			return []*types.Note{
				{NoteID: "n-0", SpaceID: "s1", Title: "Meeting notes", Content: "quarterly planning", SortOrder: 4},
				{NoteID: "n-1", SpaceID: "s1", Title: "Ideas", SortOrder: 5},
			}, nil
		},
	}

	hub := bus.New()
	log := zerolog.Nop()
	ex := retry.NewWith(log, retry.DefaultMaxAttempts, time.Millisecond)

	tl := collection.New[*types.TaskList, *types.TaskItem](types.KindTaskList, taskRepo, ex, hub, log)
	rl := collection.New[*types.RefList, *types.ListItem](types.KindRefList, refRepo, ex, hub, log)
	n := collection.New[*types.Note, *types.NoteFragment](types.KindNote, noteRepo, ex, hub, log)

	ctx := context.Background()
	require.NoError(t, tl.LoadForSpace(ctx, "s1"))
	require.NoError(t, rl.LoadForSpace(ctx, "s1"))
	require.NoError(t, n.LoadForSpace(ctx, "s1"))

	return &viewFixture{
		view:     NewView(tl, rl, n, hub, log),
		taskRepo: taskRepo,
		refRepo:  refRepo,
		noteRepo: noteRepo,
	}
}

func entryIDs(entries []types.ContentEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID()
	}
	return ids
}

func TestFilteredAllSortsAcrossKinds(t *testing.T) {
	f := newViewFixture(t)

	entries := f.view.Filtered(types.FilterAll)
	assert.Equal(t, []string{"tl-0", "tl-1", "rl-0", "rl-1", "n-0", "n-1"}, entryIDs(entries))
}

func TestFilteredSingleKind(t *testing.T) {
	f := newViewFixture(t)

	entries := f.view.Filtered(types.FilterNotes)
	assert.Equal(t, []string{"n-0", "n-1"}, entryIDs(entries))
	for _, e := range entries {
		assert.Equal(t, types.KindNote, e.Kind)
	}
}

func TestSearchMatchesNameAndBody(t *testing.T) {
	f := newViewFixture(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "name match", query: "groceries", wantIDs: []string{"tl-0"}},
		{name: "case insensitive", query: "BOOKS", wantIDs: []string{"rl-0"}},
		{name: "description match", query: "to read", wantIDs: []string{"rl-0"}},
		{name: "note content match", query: "quarterly", wantIDs: []string{"n-0"}},
		{name: "no match", query: "zanzibar", wantIDs: []string{}},
		{name: "empty matches all", query: "", wantIDs: []string{"tl-0", "tl-1", "rl-0", "rl-1", "n-0", "n-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entryIDs(f.view.Search(tt.query))
			if len(tt.wantIDs) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.wantIDs, got)
			}
		})
	}
}

func TestReorderMovesAndRenumbersDensely(t *testing.T) {
	f := newViewFixture(t)

	// Move position 2 (rl-0) to position 5. Removing it first shifts the
	// later entries down, so it lands at final position 4.
	err := f.view.Reorder(context.Background(), types.FilterAll, 2, 5)
	require.NoError(t, err)

	entries := f.view.Filtered(types.FilterAll)
	assert.Equal(t, []string{"tl-0", "tl-1", "rl-1", "n-0", "rl-0", "n-1"}, entryIDs(entries))
	for pos, e := range entries {
		assert.Equal(t, pos, e.SortOrder(), "sort orders must be dense after reorder")
	}
}

func TestReorderMovesEntryToEnd(t *testing.T) {
	f := newViewFixture(t)

	// Dropping past the last entry is expressed as newIndex == len(view); the
	// moved entry must land at the final position.
	err := f.view.Reorder(context.Background(), types.FilterAll, 0, 6)
	require.NoError(t, err)

	entries := f.view.Filtered(types.FilterAll)
	assert.Equal(t, []string{"tl-1", "rl-0", "rl-1", "n-0", "n-1", "tl-0"}, entryIDs(entries))
	for pos, e := range entries {
		assert.Equal(t, pos, e.SortOrder())
	}
}

func TestReorderPersistsOnlyChangedEntries(t *testing.T) {
	f := newViewFixture(t)

	require.NoError(t, f.view.Reorder(context.Background(), types.FilterAll, 2, 5))

	// rl-0 moved, rl-1 and n-0 shifted; tl-0, tl-1, n-1 kept their orders.
	total := f.taskRepo.updateCount() + f.refRepo.updateCount() + f.noteRepo.updateCount()
	assert.Equal(t, 3, total)
}

func TestReorderNoOpWhenIndicesEqual(t *testing.T) {
	f := newViewFixture(t)

	require.NoError(t, f.view.Reorder(context.Background(), types.FilterAll, 3, 3))
	assert.Zero(t, f.refRepo.updateCount())
	assert.Equal(t, []string{"tl-0", "tl-1", "rl-0", "rl-1", "n-0", "n-1"},
		entryIDs(f.view.Filtered(types.FilterAll)))
}

func TestReorderValidation(t *testing.T) {
	f := newViewFixture(t)
	ctx := context.Background()

	err := f.view.Reorder(ctx, types.ContentFilter("bogus"), 0, 1)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeInvalidFormat, appErr.Code)

	err = f.view.Reorder(ctx, types.FilterAll, -1, 2)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeOutOfRange, appErr.Code)

	err = f.view.Reorder(ctx, types.FilterAll, 6, 0)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeOutOfRange, appErr.Code)

	err = f.view.Reorder(ctx, types.FilterAll, 0, 7)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeOutOfRange, appErr.Code)
}

func TestReorderKeepsOptimisticStateOnPersistFailure(t *testing.T) {
	f := newViewFixture(t)
	f.refRepo.update = func(*types.RefList) (*types.RefList, error) {
		return nil, errors.New("write failed")
	}
	f.noteRepo.update = func(*types.Note) (*types.Note, error) {
		return nil, errors.New("write failed")
	}

	err := f.view.Reorder(context.Background(), types.FilterAll, 2, 5)
	require.Error(t, err, "persistence failures must be reported")

	// The optimistic order stands; there is no rollback.
	entries := f.view.Filtered(types.FilterAll)
	assert.Equal(t, []string{"tl-0", "tl-1", "rl-1", "n-0", "rl-0", "n-1"}, entryIDs(entries))
}

func TestReorderWithinSingleKindFilter(t *testing.T) {
	f := newViewFixture(t)

	// Swap the two ref lists within the ref-list view.
	require.NoError(t, f.view.Reorder(context.Background(), types.FilterRefLists, 1, 0))

	refs := f.view.Filtered(types.FilterRefLists)
	assert.Equal(t, []string{"rl-1", "rl-0"}, entryIDs(refs))
}
