package types

import "time"

// RefList is a reference list: rows are kept for lookup rather than worked
// through, but each row still carries a checked flag (e.g. packing lists).
type RefList struct {
	ListID      string    `json:"list_id"`
	SpaceID     string    `json:"space_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ID returns the list identifier.
func (l *RefList) ID() string { return l.ListID }

// Position returns the list's sort order within its space.
func (l *RefList) Position() int { return l.SortOrder }

// WithSortOrder returns a copy of the list at the given sort order.
func (l *RefList) WithSortOrder(n int) *RefList {
	c := *l
	c.SortOrder = n
	return &c
}

// ListItem is a single row owned by a reference list.
type ListItem struct {
	RowID     string    `json:"row_id"`
	ListID    string    `json:"list_id"`
	Text      string    `json:"text"`
	Checked   bool      `json:"checked"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ID returns the row identifier.
func (r *ListItem) ID() string { return r.RowID }

// ParentID returns the owning list's identifier.
func (r *ListItem) ParentID() string { return r.ListID }
