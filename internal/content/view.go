// Package content composes the three per-kind collections into one ordered,
// filterable sequence and hosts the cross-kind reorder coordinator.
package content

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/satchel/internal/bus"
	"github.com/mesh-intelligence/satchel/internal/collection"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// TaskListCollection and friends name the three concrete collection
// instantiations the view composes.
type (
	TaskListCollection = collection.Collection[*types.TaskList, *types.TaskItem]
	RefListCollection  = collection.Collection[*types.RefList, *types.ListItem]
	NoteCollection     = collection.Collection[*types.Note, *types.NoteFragment]
)

// View is the unified read surface over the three collections. It holds no
// entity state of its own; every call re-reads the collections, so snapshots
// are as fresh as the collections themselves.
type View struct {
	taskLists *TaskListCollection
	refLists  *RefListCollection
	notes     *NoteCollection
	hub       *bus.Hub
	log       zerolog.Logger
}

// NewView composes the three collections.
func NewView(tl *TaskListCollection, rl *RefListCollection, n *NoteCollection, hub *bus.Hub, log zerolog.Logger) *View {
	return &View{
		taskLists: tl,
		refLists:  rl,
		notes:     n,
		hub:       hub,
		log:       log,
	}
}

// Filtered returns the entries covered by the filter, sorted ascending by
// sort order. Ties keep kind order (task lists, reference lists, notes).
func (v *View) Filtered(filter types.ContentFilter) []types.ContentEntry {
	var entries []types.ContentEntry

	if filter.Matches(types.KindTaskList) {
		for _, l := range v.taskLists.Entities() {
			entries = append(entries, types.EntryFromTaskList(l))
		}
	}
	if filter.Matches(types.KindRefList) {
		for _, l := range v.refLists.Entities() {
			entries = append(entries, types.EntryFromRefList(l))
		}
	}
	if filter.Matches(types.KindNote) {
		for _, n := range v.notes.Entities() {
			entries = append(entries, types.EntryFromNote(n))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortOrder() < entries[j].SortOrder()
	})
	return entries
}

// Search returns every entry whose text fields contain the query,
// case-insensitively. Lists match on name and description, notes on title
// and content. Result order is not a contract of search; entries come back
// in kind order, unranked. An empty query matches everything.
func (v *View) Search(query string) []types.ContentEntry {
	q := strings.ToLower(query)
	var entries []types.ContentEntry

	for _, l := range v.taskLists.Entities() {
		if containsFold(q, l.Name, l.Description) {
			entries = append(entries, types.EntryFromTaskList(l))
		}
	}
	for _, l := range v.refLists.Entities() {
		if containsFold(q, l.Name, l.Description) {
			entries = append(entries, types.EntryFromRefList(l))
		}
	}
	for _, n := range v.notes.Entities() {
		if containsFold(q, n.Title, n.Content) {
			entries = append(entries, types.EntryFromNote(n))
		}
	}
	return entries
}

// containsFold reports whether any field contains the already-lowercased
// query as a substring.
func containsFold(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
