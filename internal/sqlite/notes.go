package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var _ types.NoteRepository = (*NoteStore)(nil)

// NoteStore implements the note repository. Fragments are the note's
// checklist blocks and follow the same child contract as list items.
type NoteStore struct {
	store *Store
}

// GetBySpace returns the space's notes in ascending sort order.
func (s *NoteStore) GetBySpace(ctx context.Context, spaceID string) ([]*types.Note, error) {
	if spaceID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT note_id, space_id, title, content, pinned, sort_order, created_at, updated_at FROM notes WHERE space_id = ? ORDER BY sort_order ASC, created_at ASC",
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := []*types.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// GetByID returns one note, or ErrNotFound.
func (s *NoteStore) GetByID(ctx context.Context, id string) (*types.Note, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT note_id, space_id, title, content, pinned, sort_order, created_at, updated_at FROM notes WHERE note_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying note %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying note %s: %w", id, err)
		}
		return nil, types.ErrNotFound
	}
	return scanNote(rows)
}

// Create persists a new note at the end of the space's unified order.
func (s *NoteStore) Create(ctx context.Context, n *types.Note) (*types.Note, error) {
	if n == nil {
		return nil, types.ErrInvalidData
	}
	if n.Title == "" {
		return nil, types.ErrNameRequired
	}
	if n.SpaceID == "" {
		return nil, types.ErrInvalidID
	}

	order, err := s.store.nextSortOrder(ctx, n.SpaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *n
	created.NoteID = generateID()
	created.SortOrder = order
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO notes (note_id, space_id, title, content, pinned, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		created.NoteID, created.SpaceID, created.Title, created.Content, boolToInt(created.Pinned),
		created.SortOrder, fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}
	return &created, nil
}

// Update replaces a note's mutable fields, including its sort order.
func (s *NoteStore) Update(ctx context.Context, n *types.Note) (*types.Note, error) {
	if n == nil {
		return nil, types.ErrInvalidData
	}
	if n.NoteID == "" {
		return nil, types.ErrInvalidID
	}
	if n.Title == "" {
		return nil, types.ErrNameRequired
	}

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, pinned = ?, sort_order = ?, updated_at = ? WHERE note_id = ?",
		n.Title, n.Content, boolToInt(n.Pinned), n.SortOrder, fmtTime(time.Now().UTC()), n.NoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	if num, err := res.RowsAffected(); err == nil && num == 0 {
		return nil, types.ErrNotFound
	}
	return s.GetByID(ctx, n.NoteID)
}

// Delete removes a note; its fragments cascade.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM notes WHERE note_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetItemsByParent returns a note's fragments in ascending sort order.
func (s *NoteStore) GetItemsByParent(ctx context.Context, parentID string) ([]*types.NoteFragment, error) {
	if parentID == "" {
		return nil, types.ErrInvalidID
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT fragment_id, note_id, text, checked, sort_order, created_at, updated_at FROM note_fragments WHERE note_id = ? ORDER BY sort_order ASC, created_at ASC",
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying note fragments: %w", err)
	}
	defer rows.Close()

	frags := []*types.NoteFragment{}
	for rows.Next() {
		f, err := scanNoteFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating note fragment: %w", err)
		}
		frags = append(frags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating note fragments: %w", err)
	}
	return frags, nil
}

// CreateItem persists a new fragment at the end of its note.
func (s *NoteStore) CreateItem(ctx context.Context, frag *types.NoteFragment) (*types.NoteFragment, error) {
	if frag == nil {
		return nil, types.ErrInvalidData
	}
	if frag.Text == "" {
		return nil, types.ErrNameRequired
	}
	if frag.NoteID == "" {
		return nil, types.ErrInvalidID
	}
	if _, err := s.GetByID(ctx, frag.NoteID); err != nil {
		return nil, err
	}

	var order int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order) + 1, 0) FROM note_fragments WHERE note_id = ?", frag.NoteID,
	).Scan(&order)
	if err != nil {
		return nil, fmt.Errorf("computing fragment sort order: %w", err)
	}

	now := time.Now().UTC()
	created := *frag
	created.FragmentID = generateID()
	created.SortOrder = order
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO note_fragments (fragment_id, note_id, text, checked, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.FragmentID, created.NoteID, created.Text, boolToInt(created.Checked), created.SortOrder,
		fmtTime(created.CreatedAt), fmtTime(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting note fragment: %w", err)
	}
	return &created, nil
}

// UpdateItem replaces a fragment's mutable fields.
func (s *NoteStore) UpdateItem(ctx context.Context, frag *types.NoteFragment) (*types.NoteFragment, error) {
	if frag == nil {
		return nil, types.ErrInvalidData
	}
	if frag.FragmentID == "" {
		return nil, types.ErrInvalidID
	}

	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE note_fragments SET text = ?, checked = ?, sort_order = ?, updated_at = ? WHERE fragment_id = ?",
		frag.Text, boolToInt(frag.Checked), frag.SortOrder, fmtTime(now), frag.FragmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating note fragment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, types.ErrNotFound
	}

	updated := *frag
	updated.UpdatedAt = now
	return &updated, nil
}

// DeleteItem removes one fragment from its note.
func (s *NoteStore) DeleteItem(ctx context.Context, itemID, parentID string) error {
	if itemID == "" || parentID == "" {
		return types.ErrInvalidID
	}
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM note_fragments WHERE fragment_id = ? AND note_id = ?", itemID, parentID)
	if err != nil {
		return fmt.Errorf("deleting note fragment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateItemSortOrders persists a bulk sort-order change atomically.
func (s *NoteStore) UpdateItemSortOrders(ctx context.Context, parentID string, frags []*types.NoteFragment) error {
	if parentID == "" {
		return types.ErrInvalidID
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := fmtTime(time.Now().UTC())
	for _, frag := range frags {
		if _, err := tx.ExecContext(ctx,
			"UPDATE note_fragments SET sort_order = ?, updated_at = ? WHERE fragment_id = ? AND note_id = ?",
			frag.SortOrder, now, frag.FragmentID, parentID,
		); err != nil {
			return fmt.Errorf("updating sort order for %s: %w", frag.FragmentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sort orders: %w", err)
	}
	return nil
}

func scanNote(rows *sql.Rows) (*types.Note, error) {
	var n types.Note
	var pinned int
	var createdAt, updatedAt string
	if err := rows.Scan(&n.NoteID, &n.SpaceID, &n.Title, &n.Content, &pinned, &n.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Pinned = pinned != 0

	var err error
	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	n.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &n, nil
}

func scanNoteFragment(rows *sql.Rows) (*types.NoteFragment, error) {
	var f types.NoteFragment
	var checked int
	var createdAt, updatedAt string
	if err := rows.Scan(&f.FragmentID, &f.NoteID, &f.Text, &checked, &f.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.Checked = checked != 0

	var err error
	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	f.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &f, nil
}
