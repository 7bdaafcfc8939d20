package types

import "context"

// ContentRepository is the per-kind persistence contract the engine consumes.
// E is the parent entity pointer type, C the child item pointer type.
//
// Create returns the authoritative entity (store-assigned identity and
// timestamps); callers must use the returned value, not the argument.
// Update performs full entity replacement. GetBySpace returns entities in
// ascending sort order. UpdateItemSortOrders persists a bulk sort-order
// change for items of one parent atomically.
type ContentRepository[E any, C any] interface {
	GetBySpace(ctx context.Context, spaceID string) ([]E, error)
	GetByID(ctx context.Context, id string) (E, error)
	Create(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id string) error

	GetItemsByParent(ctx context.Context, parentID string) ([]C, error)
	CreateItem(ctx context.Context, item C) (C, error)
	UpdateItem(ctx context.Context, item C) (C, error)
	DeleteItem(ctx context.Context, itemID, parentID string) error
	UpdateItemSortOrders(ctx context.Context, parentID string, items []C) error
}

// Per-kind repository aliases.
type (
	TaskListRepository = ContentRepository[*TaskList, *TaskItem]
	RefListRepository  = ContentRepository[*RefList, *ListItem]
	NoteRepository     = ContentRepository[*Note, *NoteFragment]
)

// SpaceRepository persists workspaces and their item counts. GetItemCount is
// the source of truth for counts; the increment/decrement pair exists for
// cheap incremental maintenance and is always reconciled by re-fetching the
// space record afterwards.
type SpaceRepository interface {
	GetSpaces(ctx context.Context, includeArchived bool) ([]*Space, error)
	GetSpaceByID(ctx context.Context, id string) (*Space, error)
	CreateSpace(ctx context.Context, space *Space) (*Space, error)
	UpdateSpace(ctx context.Context, space *Space) (*Space, error)
	DeleteSpace(ctx context.Context, id string) error

	IncrementItemCount(ctx context.Context, id string) error
	DecrementItemCount(ctx context.Context, id string) error
	GetItemCount(ctx context.Context, id string) (int, error)
}

// Preferences is durable key-value persistence for the last-selected space.
// LastSelectedSpaceID returns an empty string when no value is stored.
type Preferences interface {
	LastSelectedSpaceID() (string, error)
	SetLastSelectedSpaceID(id string) error
	ClearLastSelectedSpaceID() error
}
