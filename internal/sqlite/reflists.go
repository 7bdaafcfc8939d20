package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var _ types.RefListRepository = (*RefListStore)(nil)

// RefListStore implements the reference-list repository.
type RefListStore struct {
	store *Store
}

const refListColumns = `l.list_id, l.space_id, l.name, l.description, l.sort_order,
	(SELECT COUNT(*) FROM list_items li WHERE li.list_id = l.list_id),
	l.created_at, l.updated_at`

// GetBySpace returns the space's reference lists in ascending sort order.
func (s *RefListStore) GetBySpace(ctx context.Context, spaceID string) ([]*types.RefList, error) {
	if spaceID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+refListColumns+" FROM ref_lists l WHERE l.space_id = ? ORDER BY l.sort_order ASC, l.created_at ASC",
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ref lists: %w", err)
	}
	defer rows.Close()

	lists := []*types.RefList{}
	for rows.Next() {
		l, err := scanRefList(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating ref list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ref lists: %w", err)
	}
	return lists, nil
}

// GetByID returns one reference list, or ErrNotFound.
func (s *RefListStore) GetByID(ctx context.Context, id string) (*types.RefList, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+refListColumns+" FROM ref_lists l WHERE l.list_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying ref list %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying ref list %s: %w", id, err)
		}
		return nil, types.ErrNotFound
	}
	return scanRefList(rows)
}

// Create persists a new reference list at the end of the space's unified order.
func (s *RefListStore) Create(ctx context.Context, l *types.RefList) (*types.RefList, error) {
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
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO ref_lists (list_id, space_id, name, description, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ListID, created.SpaceID, created.Name, created.Description, created.SortOrder,
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting ref list: %w", err)
	}
	return &created, nil
}

// Update replaces a reference list's mutable fields, including its sort order.
func (s *RefListStore) Update(ctx context.Context, l *types.RefList) (*types.RefList, error) {
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
		"UPDATE ref_lists SET name = ?, description = ?, sort_order = ?, updated_at = ? WHERE list_id = ?",
		l.Name, l.Description, l.SortOrder, fmtTime(time.Now().UTC()), l.ListID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating ref list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}
	return s.GetByID(ctx, l.ListID)
}

// Delete removes a reference list; its items cascade.
func (s *RefListStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM ref_lists WHERE list_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting ref list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetItemsByParent returns a list's rows in ascending sort order.
func (s *RefListStore) GetItemsByParent(ctx context.Context, parentID string) ([]*types.ListItem, error) {
	if parentID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT row_id, list_id, text, checked, sort_order, created_at, updated_at FROM list_items WHERE list_id = ? ORDER BY sort_order ASC, created_at ASC",
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying list items: %w", err)
	}
	defer rows.Close()

	items := []*types.ListItem{}
	for rows.Next() {
		it, err := scanListItem(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating list item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating list items: %w", err)
	}
	return items, nil
}

// CreateItem persists a new row at the end of its list.
func (s *RefListStore) CreateItem(ctx context.Context, item *types.ListItem) (*types.ListItem, error) {
	if item == nil {
		return nil, types.ErrInvalidData
	}
	if item.Text == "" {
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
		"SELECT COALESCE(MAX(sort_order) + 1, 0) FROM list_items WHERE list_id = ?", item.ListID,
	).Scan(&order)
	if err != nil {
		return nil, fmt.Errorf("computing item sort order: %w", err)
	}

	now := time.Now().UTC()
	created := *item
	created.RowID = generateID()
	created.SortOrder = order
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO list_items (row_id, list_id, text, checked, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.RowID, created.ListID, created.Text, boolToInt(created.Checked), created.SortOrder,
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting list item: %w", err)
	}
	return &created, nil
}

// UpdateItem replaces a row's mutable fields.
func (s *RefListStore) UpdateItem(ctx context.Context, item *types.ListItem) (*types.ListItem, error) {
	if item == nil {
		return nil, types.ErrInvalidData
	}
	if item.RowID == "" {
		return nil, types.ErrInvalidID
	}

	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE list_items SET text = ?, checked = ?, sort_order = ?, updated_at = ? WHERE row_id = ?",
		item.Text, boolToInt(item.Checked), item.SortOrder, fmtTime(now), item.RowID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating list item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}

	updated := *item
	updated.UpdatedAt = now
	return &updated, nil
}

// DeleteItem removes one row from its list.
func (s *RefListStore) DeleteItem(ctx context.Context, itemID, parentID string) error {
	if itemID == "" || parentID == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM list_items WHERE row_id = ? AND list_id = ?", itemID, parentID)
	if err != nil {
		return fmt.Errorf("deleting list item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateItemSortOrders persists a bulk sort-order change atomically.
func (s *RefListStore) UpdateItemSortOrders(ctx context.Context, parentID string, items []*types.ListItem) error {
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
			"UPDATE list_items SET sort_order = ?, updated_at = ? WHERE row_id = ? AND list_id = ?",
			item.SortOrder, now, item.RowID, parentID,
		); err != nil {
			return fmt.Errorf("updating sort order for %s: %w", item.RowID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sort orders: %w", err)
	}
	return nil
}

func scanRefList(rows *sql.Rows) (*types.RefList, error) {
	var l types.RefList
	var createdAt, updatedAt string
	if err := rows.Scan(&l.ListID, &l.SpaceID, &l.Name, &l.Description, &l.SortOrder,
		&l.ItemCount, &createdAt, &updatedAt); err != nil {
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

func scanListItem(rows *sql.Rows) (*types.ListItem, error) {
	var it types.ListItem
	var checked int
	var createdAt, updatedAt string
	if err := rows.Scan(&it.RowID, &it.ListID, &it.Text, &checked, &it.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	it.Checked = checked != 0

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
