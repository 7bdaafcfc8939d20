package types

import "time"

// TaskList is an actionable checklist belonging to a space. The completed
// and total counts are maintained by the store and refreshed after item
// mutations; the engine never derives them locally.
type TaskList struct {
	ListID         string    `json:"list_id"`
	SpaceID        string    `json:"space_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	SortOrder      int       `json:"sort_order"`
	ItemCount      int       `json:"item_count"`
	CompletedCount int       `json:"completed_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ID returns the list identifier.
func (l *TaskList) ID() string { return l.ListID }

// Position returns the list's sort order within its space.
func (l *TaskList) Position() int { return l.SortOrder }

// WithSortOrder returns a copy of the list at the given sort order.
func (l *TaskList) WithSortOrder(n int) *TaskList {
	c := *l
	c.SortOrder = n
	return &c
}

// TaskItem is a single task row owned by a task list.
type TaskItem struct {
	TaskID    string    `json:"task_id"`
	ListID    string    `json:"list_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ID returns the task identifier.
func (t *TaskItem) ID() string { return t.TaskID }

// ParentID returns the owning list's identifier.
func (t *TaskItem) ParentID() string { return t.ListID }
