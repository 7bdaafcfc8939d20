package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

func seedSpace(t *testing.T, s *Store) *types.Space {
	t.Helper()
	sp, err := s.Spaces().CreateSpace(context.Background(), &types.Space{Name: "Home"})
	require.NoError(t, err)
	return sp
}

func TestCreateAssignsUnifiedSortOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	// New content appends to the end of the space's unified order, whatever
	// the kind of its neighbors.
	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)
	note, err := s.Notes().Create(ctx, &types.Note{SpaceID: sp.SpaceID, Title: "Scratch"})
	require.NoError(t, err)
	ref, err := s.RefLists().Create(ctx, &types.RefList{SpaceID: sp.SpaceID, Name: "Books"})
	require.NoError(t, err)

	assert.Equal(t, 0, list.SortOrder)
	assert.Equal(t, 1, note.SortOrder)
	assert.Equal(t, 2, ref.SortOrder)
}

func TestCreateTaskListValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	_, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID})
	assert.ErrorIs(t, err, types.ErrNameRequired)

	_, err = s.TaskLists().Create(ctx, &types.TaskList{Name: "Orphan"})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestGetBySpaceComputesCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)

	_, err = s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Milk"})
	require.NoError(t, err)
	eggs, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Eggs"})
	require.NoError(t, err)

	eggs.Done = true
	_, err = s.TaskLists().UpdateItem(ctx, eggs)
	require.NoError(t, err)

	lists, err := s.TaskLists().GetBySpace(ctx, sp.SpaceID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, 2, lists[0].ItemCount)
	assert.Equal(t, 1, lists[0].CompletedCount)
}

func TestUpdateTaskList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)

	list.Name = "Weekly shop"
	list.SortOrder = 5
	updated, err := s.TaskLists().Update(ctx, list)
	require.NoError(t, err)
	assert.Equal(t, "Weekly shop", updated.Name)
	assert.Equal(t, 5, updated.SortOrder)

	_, err = s.TaskLists().Update(ctx, &types.TaskList{ListID: "missing", Name: "X"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestItemsAppendAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)

	milk, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Milk"})
	require.NoError(t, err)
	eggs, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Eggs"})
	require.NoError(t, err)
	assert.Equal(t, 0, milk.SortOrder)
	assert.Equal(t, 1, eggs.SortOrder)

	items, err := s.TaskLists().GetItemsByParent(ctx, list.ListID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Milk", items[0].Title)
	assert.Equal(t, "Eggs", items[1].Title)
}

func TestCreateItemMissingParent(t *testing.T) {
	s := openTestStore(t)

	_, err := s.TaskLists().CreateItem(context.Background(),
		&types.TaskItem{ListID: "no-such-list", Title: "Milk"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteItemRequiresMatchingParent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)
	other, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Chores"})
	require.NoError(t, err)
	milk, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Milk"})
	require.NoError(t, err)

	err = s.TaskLists().DeleteItem(ctx, milk.TaskID, other.ListID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.TaskLists().DeleteItem(ctx, milk.TaskID, list.ListID))
}

func TestUpdateItemSortOrdersAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	list, err := s.TaskLists().Create(ctx, &types.TaskList{SpaceID: sp.SpaceID, Name: "Groceries"})
	require.NoError(t, err)
	milk, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Milk"})
	require.NoError(t, err)
	eggs, err := s.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: list.ListID, Title: "Eggs"})
	require.NoError(t, err)

	milk.SortOrder = 1
	eggs.SortOrder = 0
	err = s.TaskLists().UpdateItemSortOrders(ctx, list.ListID, []*types.TaskItem{milk, eggs})
	require.NoError(t, err)

	items, err := s.TaskLists().GetItemsByParent(ctx, list.ListID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Eggs", items[0].Title)
	assert.Equal(t, "Milk", items[1].Title)
}

func TestNoteFragmentsFollowItemContract(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sp := seedSpace(t, s)

	note, err := s.Notes().Create(ctx, &types.Note{SpaceID: sp.SpaceID, Title: "Checklist"})
	require.NoError(t, err)

	frag, err := s.Notes().CreateItem(ctx, &types.NoteFragment{NoteID: note.NoteID, Text: "Pack bags"})
	require.NoError(t, err)
	assert.Equal(t, 0, frag.SortOrder)

	frag.Checked = true
	updated, err := s.Notes().UpdateItem(ctx, frag)
	require.NoError(t, err)
	assert.True(t, updated.Checked)

	require.NoError(t, s.Notes().DeleteItem(ctx, frag.FragmentID, note.NoteID))
	frags, err := s.Notes().GetItemsByParent(ctx, note.NoteID)
	require.NoError(t, err)
	assert.Empty(t, frags)
}
