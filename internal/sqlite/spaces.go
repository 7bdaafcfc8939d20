package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Compile-time interface check.
var _ types.SpaceRepository = (*SpaceStore)(nil)

// SpaceStore implements the space repository over the shared database.
type SpaceStore struct {
	store *Store
}

// GetSpaces returns the spaces ordered by creation time, skipping archived
// spaces unless includeArchived is set.
func (s *SpaceStore) GetSpaces(ctx context.Context, includeArchived bool) ([]*types.Space, error) {
	query := "SELECT space_id, name, icon, color, is_archived, item_count, created_at, updated_at FROM spaces"
	if !includeArchived {
		query += " WHERE is_archived = 0"
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying spaces: %w", err)
	}
	defer rows.Close()

	spaces := []*types.Space{}
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating space: %w", err)
		}
		spaces = append(spaces, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spaces: %w", err)
	}
	return spaces, nil
}

// GetSpaceByID returns one space, or ErrNotFound.
func (s *SpaceStore) GetSpaceByID(ctx context.Context, id string) (*types.Space, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT space_id, name, icon, color, is_archived, item_count, created_at, updated_at FROM spaces WHERE space_id = ?",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying space %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying space %s: %w", id, err)
		}
		return nil, types.ErrNotFound
	}
	return scanSpace(rows)
}

// CreateSpace persists a new space with a generated identity and returns
// the authoritative copy.
func (s *SpaceStore) CreateSpace(ctx context.Context, sp *types.Space) (*types.Space, error) {
	if sp == nil {
		return nil, types.ErrInvalidData
	}
	if sp.Name == "" {
		return nil, types.ErrNameRequired
	}

	now := time.Now().UTC()
	created := *sp
	created.SpaceID = generateID()
	created.ItemCount = 0
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx,
		"INSERT INTO spaces (space_id, name, icon, color, is_archived, item_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 0, ?, ?)",
		created.SpaceID, created.Name, created.Icon, created.Color, boolToInt(created.IsArchived),
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting space: %w", err)
	}
	return &created, nil
}

// UpdateSpace replaces a space's mutable fields. The item counter is owned
// by the increment/decrement operations and left untouched.
func (s *SpaceStore) UpdateSpace(ctx context.Context, sp *types.Space) (*types.Space, error) {
	if sp == nil {
		return nil, types.ErrInvalidData
	}
	if sp.SpaceID == "" {
		return nil, types.ErrInvalidID
	}
	if sp.Name == "" {
		return nil, types.ErrNameRequired
	}

	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE spaces SET name = ?, icon = ?, color = ?, is_archived = ?, updated_at = ? WHERE space_id = ?",
		sp.Name, sp.Icon, sp.Color, boolToInt(sp.IsArchived), fmtTime(now), sp.SpaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating space: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}
	return s.GetSpaceByID(ctx, sp.SpaceID)
}

// DeleteSpace removes a space; content rows cascade.
func (s *SpaceStore) DeleteSpace(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM spaces WHERE space_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting space: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// IncrementItemCount bumps the stored counter.
func (s *SpaceStore) IncrementItemCount(ctx context.Context, id string) error {
	return s.adjustItemCount(ctx, id, "item_count + 1")
}

// DecrementItemCount lowers the stored counter, flooring at zero.
func (s *SpaceStore) DecrementItemCount(ctx context.Context, id string) error {
	return s.adjustItemCount(ctx, id, "MAX(item_count - 1, 0)")
}

func (s *SpaceStore) adjustItemCount(ctx context.Context, id, expr string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE spaces SET item_count = "+expr+", updated_at = ? WHERE space_id = ?",
		fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("adjusting item count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetItemCount computes the authoritative count of parent-level content in
// the space from the content tables, not the stored counter.
func (s *SpaceStore) GetItemCount(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}
	var count int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM task_lists WHERE space_id = ?) +
			(SELECT COUNT(*) FROM ref_lists WHERE space_id = ?) +
			(SELECT COUNT(*) FROM notes WHERE space_id = ?)`,
		id, id, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting space items: %w", err)
	}
	return count, nil
}

// scanSpace hydrates one space row.
func scanSpace(rows *sql.Rows) (*types.Space, error) {
	var sp types.Space
	var archived int
	var createdAt, updatedAt string
	if err := rows.Scan(&sp.SpaceID, &sp.Name, &sp.Icon, &sp.Color, &archived, &sp.ItemCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sp.IsArchived = archived != 0

	var err error
	sp.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	sp.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &sp, nil
}

// fmtTime and parseTime fix the stored timestamp format.
func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
