package types

import "time"

// Note is a free-form text entry belonging to a space.
type Note struct {
	NoteID    string    `json:"note_id"`
	SpaceID   string    `json:"space_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Pinned    bool      `json:"pinned"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ID returns the note identifier.
func (n *Note) ID() string { return n.NoteID }

// Position returns the note's sort order within its space.
func (n *Note) Position() int { return n.SortOrder }

// WithSortOrder returns a copy of the note at the given sort order.
func (n *Note) WithSortOrder(o int) *Note {
	c := *n
	c.SortOrder = o
	return &c
}

// NoteFragment is a checklist-style block embedded in a note, so notes share
// the same child-item contract as the two list kinds.
type NoteFragment struct {
	FragmentID string    `json:"fragment_id"`
	NoteID     string    `json:"note_id"`
	Text       string    `json:"text"`
	Checked    bool      `json:"checked"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ID returns the fragment identifier.
func (f *NoteFragment) ID() string { return f.FragmentID }

// ParentID returns the owning note's identifier.
func (f *NoteFragment) ParentID() string { return f.NoteID }
