package collection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/retry"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// fakeRepo is an in-memory task-list repository with per-method error
// injection and call counting.
type fakeRepo struct {
	lists  []*types.TaskList
	items  map[string][]*types.TaskItem
	nextID int

	errs  map[string]error
	calls map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items: make(map[string][]*types.TaskItem),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (r *fakeRepo) step(method string) error {
	r.calls[method]++
	return r.errs[method]
}

func (r *fakeRepo) GetBySpace(ctx context.Context, spaceID string) ([]*types.TaskList, error) {
	if err := r.step("GetBySpace"); err != nil {
		return nil, err
	}
	var out []*types.TaskList
	for _, l := range r.lists {
		if l.SpaceID == spaceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*types.TaskList, error) {
	if err := r.step("GetByID"); err != nil {
		return nil, err
	}
	for _, l := range r.lists {
		if l.ListID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *fakeRepo) Create(ctx context.Context, l *types.TaskList) (*types.TaskList, error) {
	if err := r.step("Create"); err != nil {
		return nil, err
	}
	r.nextID++
	created := *l
	created.ListID = fmt.Sprintf("list-%d", r.nextID)
	r.lists = append(r.lists, &created)
	return &created, nil
}

func (r *fakeRepo) Update(ctx context.Context, l *types.TaskList) (*types.TaskList, error) {
	if err := r.step("Update"); err != nil {
		return nil, err
	}
	for i, existing := range r.lists {
		if existing.ListID == l.ListID {
			c := *l
			r.lists[i] = &c
			return &c, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	if err := r.step("Delete"); err != nil {
		return err
	}
	for i, l := range r.lists {
		if l.ListID == id {
			r.lists = append(r.lists[:i], r.lists[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (r *fakeRepo) GetItemsByParent(ctx context.Context, parentID string) ([]*types.TaskItem, error) {
	if err := r.step("GetItemsByParent"); err != nil {
		return nil, err
	}
	return r.items[parentID], nil
}

func (r *fakeRepo) CreateItem(ctx context.Context, item *types.TaskItem) (*types.TaskItem, error) {
	if err := r.step("CreateItem"); err != nil {
		return nil, err
	}
	r.nextID++
	created := *item
	created.TaskID = fmt.Sprintf("task-%d", r.nextID)
	r.items[item.ListID] = append(r.items[item.ListID], &created)
	for _, l := range r.lists {
		if l.ListID == item.ListID {
			l.ItemCount++
		}
	}
	return &created, nil
}

func (r *fakeRepo) UpdateItem(ctx context.Context, item *types.TaskItem) (*types.TaskItem, error) {
	if err := r.step("UpdateItem"); err != nil {
		return nil, err
	}
	for i, existing := range r.items[item.ListID] {
		if existing.TaskID == item.TaskID {
			c := *item
			r.items[item.ListID][i] = &c
			return &c, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *fakeRepo) DeleteItem(ctx context.Context, itemID, parentID string) error {
	if err := r.step("DeleteItem"); err != nil {
		return err
	}
	items := r.items[parentID]
	for i, it := range items {
		if it.TaskID == itemID {
			r.items[parentID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (r *fakeRepo) UpdateItemSortOrders(ctx context.Context, parentID string, items []*types.TaskItem) error {
	if err := r.step("UpdateItemSortOrders"); err != nil {
		return err
	}
	return nil
}

var _ types.TaskListRepository = (*fakeRepo)(nil)

func newTestCollection(repo types.TaskListRepository) (*Collection[*types.TaskList, *types.TaskItem], *bus.Hub) {
	hub := bus.New()
	ex := retry.NewWith(zerolog.Nop(), retry.DefaultMaxAttempts, time.Millisecond)
	return New(types.KindTaskList, repo, ex, hub, zerolog.Nop()), hub
}

func seedLists(repo *fakeRepo, spaceID string, names ...string) {
	for i, name := range names {
		repo.nextID++
		repo.lists = append(repo.lists, &types.TaskList{
			ListID:    fmt.Sprintf("list-%d", repo.nextID),
			SpaceID:   spaceID,
			Name:      name,
			SortOrder: i,
		})
	}
}

func TestLoadForSpace(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries", "Chores")
	c, _ := newTestCollection(repo)

	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	assert.Equal(t, "s1", c.ActiveSpace())
	assert.Len(t, c.Entities(), 2)
	assert.Nil(t, c.Err())
	assert.False(t, c.Loading())
}

func TestLoadForSpaceFailureClearsList(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	require.Len(t, c.Entities(), 1)

	repo.errs["GetBySpace"] = errors.New("disk gone")
	err := c.LoadForSpace(context.Background(), "s1")

	require.Error(t, err)
	assert.Empty(t, c.Entities(), "failed load must clear the list, not leave stale entities")
	require.NotNil(t, c.Err())
	assert.Equal(t, apperr.CodeUnknown, c.Err().Code)
}

func TestCreateAppendsAuthoritativeCopy(t *testing.T) {
	repo := newFakeRepo()
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	created, err := c.Create(context.Background(), &types.TaskList{SpaceID: "s1", Name: "Groceries"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ListID, "identity must come from the store")

	entities := c.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, created.ListID, entities[0].ListID)
}

func TestCreateFailureLeavesMemoryUntouched(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	repo.errs["Create"] = types.ErrNameRequired
	_, err := c.Create(context.Background(), &types.TaskList{SpaceID: "s1"})

	require.Error(t, err)
	assert.Len(t, c.Entities(), 1)
	require.NotNil(t, c.Err())
	assert.Equal(t, apperr.CodeRequiredField, c.Err().Code)
}

func TestCreateRetriesTransientFailure(t *testing.T) {
	repo := newFakeRepo()
	attempts := 0
	wrapped := &flakyRepo{TaskListRepository: repo, failuresLeft: 2, onCreate: func() { attempts++ }}
	c, _ := newTestCollection(wrapped)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	created, err := c.Create(context.Background(), &types.TaskList{SpaceID: "s1", Name: "Trips"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ListID)
	assert.Equal(t, 3, attempts, "two transient failures then success")
}

// flakyRepo fails Create with a retryable error a fixed number of times.
type flakyRepo struct {
	types.TaskListRepository
	failuresLeft int
	onCreate     func()
}

func (r *flakyRepo) Create(ctx context.Context, l *types.TaskList) (*types.TaskList, error) {
	r.onCreate()
	if r.failuresLeft > 0 {
		r.failuresLeft--
		return nil, apperr.Unavailable(errors.New("locked"))
	}
	return r.TaskListRepository.Create(ctx, l)
}

func TestUpdateSwapsMatchingEntity(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries", "Chores")
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	before := c.Entities()
	target := *before[0]
	target.Name = "Renamed"

	updated, err := c.Update(context.Background(), &target)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	after := c.Entities()
	assert.Equal(t, "Renamed", after[0].Name)
	assert.Equal(t, "Groceries", before[0].Name, "earlier snapshot must not be mutated")
}

func TestDeleteRemovesEntityAndCache(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID
	repo.items[listID] = []*types.TaskItem{{TaskID: "t1", ListID: listID, Title: "Milk"}}

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	_, err := c.LoadItems(context.Background(), listID)
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), listID))
	assert.Empty(t, c.Entities())
	_, cached := c.CachedItems(listID)
	assert.False(t, cached)
}

func TestLoadItemsCachesAndEvictsOnFailure(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID
	repo.items[listID] = []*types.TaskItem{{TaskID: "t1", ListID: listID, Title: "Milk"}}

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	items, err := c.LoadItems(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	cached, ok := c.CachedItems(listID)
	require.True(t, ok)
	assert.Len(t, cached, 1)

	repo.errs["GetItemsByParent"] = errors.New("read failed")
	_, err = c.LoadItems(context.Background(), listID)
	require.Error(t, err)
	_, ok = c.CachedItems(listID)
	assert.False(t, ok, "failed item load must evict the cache entry")
}

func TestCreateItemInvalidatesCacheAndRefreshesParent(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	_, err := c.LoadItems(context.Background(), listID)
	require.NoError(t, err)

	created, err := c.CreateItem(context.Background(), &types.TaskItem{ListID: listID, Title: "Milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.TaskID)

	_, ok := c.CachedItems(listID)
	assert.False(t, ok, "item mutation must evict the parent's cache entry")

	// Parent re-fetched with store-maintained counts.
	assert.Equal(t, 1, c.Entities()[0].ItemCount)
	assert.Nil(t, c.Err())
}

func TestItemMutationSurvivesParentRefreshFailure(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	repo.errs["GetByID"] = errors.New("refresh blew up")
	created, err := c.CreateItem(context.Background(), &types.TaskItem{ListID: listID, Title: "Milk"})

	require.NoError(t, err, "the item write succeeded; refresh failure must not fail the call")
	assert.NotEmpty(t, created.TaskID)
	require.NotNil(t, c.Err(), "refresh failure lands in observable error state")
	assert.Equal(t, apperr.CodeUnknown, c.Err().Code)
}

func TestDeleteItemInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID
	repo.items[listID] = []*types.TaskItem{{TaskID: "t1", ListID: listID, Title: "Milk"}}

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	_, err := c.LoadItems(context.Background(), listID)
	require.NoError(t, err)

	require.NoError(t, c.DeleteItem(context.Background(), "t1", listID))
	_, ok := c.CachedItems(listID)
	assert.False(t, ok)
}

func TestReorderItemsEvictsWithoutRepopulating(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	listID := repo.lists[0].ListID
	items := []*types.TaskItem{
		{TaskID: "t1", ListID: listID, Title: "Milk", SortOrder: 0},
		{TaskID: "t2", ListID: listID, Title: "Eggs", SortOrder: 1},
	}
	repo.items[listID] = items

	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))
	_, err := c.LoadItems(context.Background(), listID)
	require.NoError(t, err)

	reordered := []*types.TaskItem{
		{TaskID: "t2", ListID: listID, Title: "Eggs", SortOrder: 0},
		{TaskID: "t1", ListID: listID, Title: "Milk", SortOrder: 1},
	}
	require.NoError(t, c.ReorderItems(context.Background(), listID, reordered))

	_, ok := c.CachedItems(listID)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.calls["UpdateItemSortOrders"])
}

func TestApplySortOrdersResortsOptimistically(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "A", "B", "C")
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	entities := c.Entities()
	moved := entities[2].WithSortOrder(0)
	first := entities[0].WithSortOrder(1)
	second := entities[1].WithSortOrder(2)

	c.ApplySortOrders([]*types.TaskList{moved, first, second})

	after := c.Entities()
	names := []string{after[0].Name, after[1].Name, after[2].Name}
	assert.Equal(t, []string{"C", "A", "B"}, names)
	assert.Equal(t, 0, repo.calls["Update"], "optimistic apply must not persist")
}

func TestPersistSortOrderFailureKeepsOptimisticState(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "A", "B")
	c, _ := newTestCollection(repo)
	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	moved := c.Entities()[1].WithSortOrder(0)
	other := c.Entities()[0].WithSortOrder(1)
	c.ApplySortOrders([]*types.TaskList{moved, other})
	require.Equal(t, "B", c.Entities()[0].Name)

	repo.errs["Update"] = errors.New("write failed")
	err := c.PersistSortOrder(context.Background(), moved)

	require.Error(t, err)
	assert.Equal(t, "B", c.Entities()[0].Name, "optimistic order stands; no rollback")
	require.NotNil(t, c.Err())
}

func TestPublishesContentEvents(t *testing.T) {
	repo := newFakeRepo()
	seedLists(repo, "s1", "Groceries")
	c, hub := newTestCollection(repo)

	sub := hub.Subscribe(bus.TopicContentChanged)
	defer hub.Unsubscribe(sub)

	require.NoError(t, c.LoadForSpace(context.Background(), "s1"))

	select {
	case e := <-sub.Ch():
		payload, ok := e.Payload.(bus.ContentChangedEvent)
		require.True(t, ok)
		assert.Equal(t, types.KindTaskList, payload.Kind)
		assert.Equal(t, "s1", payload.SpaceID)
	case <-time.After(time.Second):
		t.Fatal("no content.changed event published")
	}
}
