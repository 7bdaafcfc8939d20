package types

import "time"

// Space is a user-defined workspace partitioning content. At most one space
// is current at a time; the engine refuses to delete the current space.
type Space struct {
	SpaceID    string    `json:"space_id"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon,omitempty"`
	Color      string    `json:"color,omitempty"`
	IsArchived bool      `json:"is_archived"`
	ItemCount  int       `json:"item_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ID returns the space identifier.
func (s *Space) ID() string { return s.SpaceID }

// Archived returns a copy of the space with the archived flag set.
// Archiving is a soft delete; the space remains loadable on request.
func (s *Space) Archived() *Space {
	c := *s
	c.IsArchived = true
	return &c
}
