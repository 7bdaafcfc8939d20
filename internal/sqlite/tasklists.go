package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Compile-time interface check.
var _ types.TaskListRepository = (*TaskListStore)(nil)

// TaskListStore implements the task-list repository. Item and completion
// counts are computed from the task_items table on every read, so a parent
// re-fetch after an item mutation always sees fresh counts.
type TaskListStore struct {
	store *Store
}

const taskListColumns = `l.list_id, l.space_id, l.name, l.description, l.sort_order,
	(SELECT COUNT(*) FROM task_items ti WHERE ti.list_id = l.list_id),
	(SELECT COUNT(*) FROM task_items ti WHERE ti.list_id = l.list_id AND ti.done = 1),
	l.created_at, l.updated_at`

// GetBySpace returns the space's task lists in ascending sort order.
func (s *TaskListStore) GetBySpace(ctx context.Context, spaceID string) ([]*types.TaskList, error) {
	if spaceID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+taskListColumns+" FROM task_lists l WHERE l.space_id = ? ORDER BY l.sort_order ASC, l.created_at ASC",
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying task lists: %w", err)
	}
	defer rows.Close()

	lists := []*types.TaskList{}
	for rows.Next() {
		l, err := scanTaskList(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating task list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task lists: %w", err)
	}
	return lists, nil
}

// GetByID returns one task list, or ErrNotFound.
func (s *TaskListStore) GetByID(ctx context.Context, id string) (*types.TaskList, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+taskListColumns+" FROM task_lists l WHERE l.list_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying task list %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying task list %s: %w", id, err)
		}
		return nil, types.ErrNotFound
	}
	return scanTaskList(rows)
}

// Create persists a new task list at the end of the space's unified order
// and returns the authoritative copy.
func (s *TaskListStore) Create(ctx context.Context, l *types.TaskList) (*types.TaskList, error) {
	if l == nil {
		return nil, types.ErrInvalidData
	}
	if l.Name == "" {
		return nil, types.ErrNameRequired
	}
	if l.SpaceID == "" {
		return nil, types.ErrInvalidID
	}

	order, err := s.store.nextSortOrder(ctx, l.SpaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *l
	created.ListID = generateID()
	created.SortOrder = order
	created.ItemCount = 0
	created.CompletedCount = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO task_lists (list_id, space_id, name, description, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ListID, created.SpaceID, created.Name, created.Description, created.SortOrder,
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task list: %w", err)
	}
	return &created, nil
}

// Update replaces a task list's mutable fields, including its sort order.
func (s *TaskListStore) Update(ctx context.Context, l *types.TaskList) (*types.TaskList, error) {
	if l == nil {
		return nil, types.ErrInvalidData
	}
	if l.ListID == "" {
		return nil, types.ErrInvalidID
	}
	if l.Name == "" {
		return nil, types.ErrNameRequired
	}

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE task_lists SET name = ?, description = ?, sort_order = ?, updated_at = ? WHERE list_id = ?",
		l.Name, l.Description, l.SortOrder, fmtTime(time.Now().UTC()), l.ListID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}
	return s.GetByID(ctx, l.ListID)
}

// Delete removes a task list; its items cascade.
func (s *TaskListStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM task_lists WHERE list_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetItemsByParent returns a list's tasks in ascending sort order.
func (s *TaskListStore) GetItemsByParent(ctx context.Context, parentID string) ([]*types.TaskItem, error) {
	if parentID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT task_id, list_id, title, done, sort_order, created_at, updated_at FROM task_items WHERE list_id = ? ORDER BY sort_order ASC, created_at ASC",
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying task items: %w", err)
	}
	defer rows.Close()

	items := []*types.TaskItem{}
	for rows.Next() {
		it, err := scanTaskItem(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating task item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task items: %w", err)
	}
	return items, nil
}

// CreateItem persists a new task at the end of its list.
func (s *TaskListStore) CreateItem(ctx context.Context, item *types.TaskItem) (*types.TaskItem, error) {
	if item == nil {
		return nil, types.ErrInvalidData
	}
	if item.Title == "" {
		return nil, types.ErrNameRequired
	}
	if item.ListID == "" {
		return nil, types.ErrInvalidID
	}
	if _, err := s.GetByID(ctx, item.ListID); err != nil {
		return nil, err
	}

	var order int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order) + 1, 0) FROM task_items WHERE list_id = ?", item.ListID,
	).Scan(&order)
	if err != nil {
		return nil, fmt.Errorf("computing item sort order: %w", err)
	}

	now := time.Now().UTC()
	created := *item
	created.TaskID = generateID()
	created.SortOrder = order
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO task_items (task_id, list_id, title, done, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.TaskID, created.ListID, created.Title, boolToInt(created.Done), created.SortOrder,
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task item: %w", err)
	}
	return &created, nil
}

// UpdateItem replaces a task's mutable fields.
func (s *TaskListStore) UpdateItem(ctx context.Context, item *types.TaskItem) (*types.TaskItem, error) {
	if item == nil {
		return nil, types.ErrInvalidData
	}
	if item.TaskID == "" {
		return nil, types.ErrInvalidID
	}

	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE task_items SET title = ?, done = ?, sort_order = ?, updated_at = ? WHERE task_id = ?",
		item.Title, boolToInt(item.Done), item.SortOrder, fmtTime(now), item.TaskID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}

	updated := *item
	updated.UpdatedAt = now
	return &updated, nil
}

// DeleteItem removes one task from its list.
func (s *TaskListStore) DeleteItem(ctx context.Context, itemID, parentID string) error {
	if itemID == "" || parentID == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM task_items WHERE task_id = ? AND list_id = ?", itemID, parentID)
	if err != nil {
		return fmt.Errorf("deleting task item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateItemSortOrders persists a bulk sort-order change atomically.
func (s *TaskListStore) UpdateItemSortOrders(ctx context.Context, parentID string, items []*types.TaskItem) error {
	if parentID == "" {
		return types.ErrInvalidID
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := fmtTime(time.Now().UTC())
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			"UPDATE task_items SET sort_order = ?, updated_at = ? WHERE task_id = ? AND list_id = ?",
			item.SortOrder, now, item.TaskID, parentID,
		); err != nil {
			return fmt.Errorf("updating sort order for %s: %w", item.TaskID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sort orders: %w", err)
	}
	return nil
}

func scanTaskList(rows *sql.Rows) (*types.TaskList, error) {
	var l types.TaskList
	var createdAt, updatedAt string
	if err := rows.Scan(&l.ListID, &l.SpaceID, &l.Name, &l.Description, &l.SortOrder,
		&l.ItemCount, &l.CompletedCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &l, nil
}

func scanTaskItem(rows *sql.Rows) (*types.TaskItem, error) {
	var it types.TaskItem
	var done int
	var createdAt, updatedAt string
	if err := rows.Scan(&it.TaskID, &it.ListID, &it.Title, &done, &it.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	it.Done = done != 0

	var err error
	it.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	it.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &it, nil
}
