package types

// ContentKind discriminates the three parent-level content types.
type ContentKind string

// Recognized content kinds.
const (
	KindTaskList ContentKind = "task_list"
	KindRefList  ContentKind = "ref_list"
	KindNote     ContentKind = "note"
)

// ContentFilter selects which kinds a unified view operation covers:
// FilterAll or exactly one kind.
type ContentFilter string

// Recognized filter values.
const (
	FilterAll       ContentFilter = "all"
	FilterTaskLists ContentFilter = ContentFilter(KindTaskList)
	FilterRefLists  ContentFilter = ContentFilter(KindRefList)
	FilterNotes     ContentFilter = ContentFilter(KindNote)
)

// validFilters is the set of accepted filter values.
var validFilters = map[ContentFilter]bool{
	FilterAll:       true,
	FilterTaskLists: true,
	FilterRefLists:  true,
	FilterNotes:     true,
}

// Valid reports whether f is a recognized filter value.
func (f ContentFilter) Valid() bool { return validFilters[f] }

// Matches reports whether the filter covers the given kind.
func (f ContentFilter) Matches(k ContentKind) bool {
	return f == FilterAll || ContentFilter(k) == f
}

// ContentEntry is a tagged union over the three content kinds. Exactly one
// of the three pointers is non-nil, matching Kind. Shared fields are read
// through exhaustive switches on Kind rather than runtime type checks.
type ContentEntry struct {
	Kind     ContentKind `json:"kind"`
	TaskList *TaskList   `json:"task_list,omitempty"`
	RefList  *RefList    `json:"ref_list,omitempty"`
	Note     *Note       `json:"note,omitempty"`
}

// EntryFromTaskList wraps a task list as a content entry.
func EntryFromTaskList(l *TaskList) ContentEntry {
	return ContentEntry{Kind: KindTaskList, TaskList: l}
}

// EntryFromRefList wraps a reference list as a content entry.
func EntryFromRefList(l *RefList) ContentEntry {
	return ContentEntry{Kind: KindRefList, RefList: l}
}

// EntryFromNote wraps a note as a content entry.
func EntryFromNote(n *Note) ContentEntry {
	return ContentEntry{Kind: KindNote, Note: n}
}

// ID returns the wrapped entity's identifier.
func (e ContentEntry) ID() string {
	switch e.Kind {
	case KindTaskList:
		return e.TaskList.ListID
	case KindRefList:
		return e.RefList.ListID
	case KindNote:
		return e.Note.NoteID
	}
	return ""
}

// SpaceID returns the owning space of the wrapped entity.
func (e ContentEntry) SpaceID() string {
	switch e.Kind {
	case KindTaskList:
		return e.TaskList.SpaceID
	case KindRefList:
		return e.RefList.SpaceID
	case KindNote:
		return e.Note.SpaceID
	}
	return ""
}

// SortOrder returns the wrapped entity's sort order.
func (e ContentEntry) SortOrder() int {
	switch e.Kind {
	case KindTaskList:
		return e.TaskList.SortOrder
	case KindRefList:
		return e.RefList.SortOrder
	case KindNote:
		return e.Note.SortOrder
	}
	return 0
}

// DisplayName returns the name or title shown for the entry.
func (e ContentEntry) DisplayName() string {
	switch e.Kind {
	case KindTaskList:
		return e.TaskList.Name
	case KindRefList:
		return e.RefList.Name
	case KindNote:
		return e.Note.Title
	}
	return ""
}

// WithSortOrder returns a copy of the entry whose wrapped entity carries the
// given sort order. The original entry is untouched.
func (e ContentEntry) WithSortOrder(n int) ContentEntry {
	switch e.Kind {
	case KindTaskList:
		return ContentEntry{Kind: KindTaskList, TaskList: e.TaskList.WithSortOrder(n)}
	case KindRefList:
		return ContentEntry{Kind: KindRefList, RefList: e.RefList.WithSortOrder(n)}
	case KindNote:
		return ContentEntry{Kind: KindNote, Note: e.Note.WithSortOrder(n)}
	}
	return e
}
