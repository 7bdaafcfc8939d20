// Item commands for the satchel CLI: children of one task list, ref list,
// or note.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var (
	itemListKind string

	itemAddKind string

	itemUpdateKind   string
	itemUpdateParent string
	itemUpdateText   string
	itemUpdateDone   bool

	itemDeleteKind   string
	itemDeleteParent string

	itemReorderKind  string
	itemReorderOrder string
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage items within a list or note",
}

var itemListCmd = &cobra.Command{
	Use:   "list PARENT_ID",
	Short: "List the items of a parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(itemListKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "item list:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("item list", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "item list")
		ctx := cmd.Context()
		parentID := args[0]

		switch kind {
		case types.KindTaskList:
			items, err := eng.TaskLists().LoadItems(ctx, parentID)
			if err != nil {
				fail("item list", err)
			}
			if flagJSON {
				printJSON(items)
				return nil
			}
			for _, it := range items {
				fmt.Printf("%3d  [%s]  %s  %s\n", it.SortOrder, checkbox(it.Done), it.TaskID, it.Title)
			}
		case types.KindRefList:
			items, err := eng.RefLists().LoadItems(ctx, parentID)
			if err != nil {
				fail("item list", err)
			}
			if flagJSON {
				printJSON(items)
				return nil
			}
			for _, it := range items {
				fmt.Printf("%3d  [%s]  %s  %s\n", it.SortOrder, checkbox(it.Checked), it.RowID, it.Text)
			}
		case types.KindNote:
			items, err := eng.Notes().LoadItems(ctx, parentID)
			if err != nil {
				fail("item list", err)
			}
			if flagJSON {
				printJSON(items)
				return nil
			}
			for _, it := range items {
				fmt.Printf("%3d  [%s]  %s  %s\n", it.SortOrder, checkbox(it.Checked), it.FragmentID, it.Text)
			}
		}
		return nil
	},
}

var itemAddCmd = &cobra.Command{
	Use:   "add PARENT_ID TEXT",
	Short: "Add an item to a parent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(itemAddKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "item add:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("item add", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "item add")
		ctx := cmd.Context()
		parentID, text := args[0], args[1]

		var id string
		switch kind {
		case types.KindTaskList:
			created, err := eng.TaskLists().CreateItem(ctx, &types.TaskItem{ListID: parentID, Title: text})
			if err != nil {
				fail("item add", err)
			}
			id = created.TaskID
		case types.KindRefList:
			created, err := eng.RefLists().CreateItem(ctx, &types.ListItem{ListID: parentID, Text: text})
			if err != nil {
				fail("item add", err)
			}
			id = created.RowID
		case types.KindNote:
			created, err := eng.Notes().CreateItem(ctx, &types.NoteFragment{NoteID: parentID, Text: text})
			if err != nil {
				fail("item add", err)
			}
			id = created.FragmentID
		}

		fmt.Printf("Added item: %s\n", id)
		return nil
	},
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update ITEM_ID",
	Short: "Update an item's text or checked state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(itemUpdateKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "item update:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("item update", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "item update")
		ctx := cmd.Context()
		itemID := args[0]

		switch kind {
		case types.KindTaskList:
			items, err := eng.TaskLists().LoadItems(ctx, itemUpdateParent)
			if err != nil {
				fail("item update", err)
			}
			target := findItem(items, itemID, func(it *types.TaskItem) string { return it.TaskID })
			next := *target
			if cmd.Flags().Changed("text") {
				next.Title = itemUpdateText
			}
			if cmd.Flags().Changed("done") {
				next.Done = itemUpdateDone
			}
			if _, err := eng.TaskLists().UpdateItem(ctx, &next); err != nil {
				fail("item update", err)
			}
		case types.KindRefList:
			items, err := eng.RefLists().LoadItems(ctx, itemUpdateParent)
			if err != nil {
				fail("item update", err)
			}
			target := findItem(items, itemID, func(it *types.ListItem) string { return it.RowID })
			next := *target
			if cmd.Flags().Changed("text") {
				next.Text = itemUpdateText
			}
			if cmd.Flags().Changed("done") {
				next.Checked = itemUpdateDone
			}
			if _, err := eng.RefLists().UpdateItem(ctx, &next); err != nil {
				fail("item update", err)
			}
		case types.KindNote:
			items, err := eng.Notes().LoadItems(ctx, itemUpdateParent)
			if err != nil {
				fail("item update", err)
			}
			target := findItem(items, itemID, func(it *types.NoteFragment) string { return it.FragmentID })
			next := *target
			if cmd.Flags().Changed("text") {
				next.Text = itemUpdateText
			}
			if cmd.Flags().Changed("done") {
				next.Checked = itemUpdateDone
			}
			if _, err := eng.Notes().UpdateItem(ctx, &next); err != nil {
				fail("item update", err)
			}
		}

		fmt.Printf("Updated item: %s\n", itemID)
		return nil
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete ITEM_ID",
	Short: "Delete an item from a parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(itemDeleteKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "item delete:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("item delete", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "item delete")
		ctx := cmd.Context()
		itemID, parentID := args[0], itemDeleteParent

		switch kind {
		case types.KindTaskList:
			err = eng.TaskLists().DeleteItem(ctx, itemID, parentID)
		case types.KindRefList:
			err = eng.RefLists().DeleteItem(ctx, itemID, parentID)
		case types.KindNote:
			err = eng.Notes().DeleteItem(ctx, itemID, parentID)
		}
		if err != nil {
			fail("item delete", err)
		}

		fmt.Printf("Deleted item: %s\n", itemID)
		return nil
	},
}

var itemReorderCmd = &cobra.Command{
	Use:   "reorder PARENT_ID",
	Short: "Reorder a parent's items to the given id sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(itemReorderKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "item reorder:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("item reorder", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "item reorder")
		ctx := cmd.Context()
		parentID := args[0]
		order := strings.Split(itemReorderOrder, ",")

		switch kind {
		case types.KindTaskList:
			items, err := eng.TaskLists().LoadItems(ctx, parentID)
			if err != nil {
				fail("item reorder", err)
			}
			reordered, err := sequenceItems(items, order, func(it *types.TaskItem) string { return it.TaskID },
				func(it *types.TaskItem, n int) *types.TaskItem { c := *it; c.SortOrder = n; return &c })
			if err != nil {
				fmt.Fprintln(os.Stderr, "item reorder:", err)
				os.Exit(exitUserError)
			}
			if err := eng.TaskLists().ReorderItems(ctx, parentID, reordered); err != nil {
				fail("item reorder", err)
			}
		case types.KindRefList:
			items, err := eng.RefLists().LoadItems(ctx, parentID)
			if err != nil {
				fail("item reorder", err)
			}
			reordered, err := sequenceItems(items, order, func(it *types.ListItem) string { return it.RowID },
				func(it *types.ListItem, n int) *types.ListItem { c := *it; c.SortOrder = n; return &c })
			if err != nil {
				fmt.Fprintln(os.Stderr, "item reorder:", err)
				os.Exit(exitUserError)
			}
			if err := eng.RefLists().ReorderItems(ctx, parentID, reordered); err != nil {
				fail("item reorder", err)
			}
		case types.KindNote:
			items, err := eng.Notes().LoadItems(ctx, parentID)
			if err != nil {
				fail("item reorder", err)
			}
			reordered, err := sequenceItems(items, order, func(it *types.NoteFragment) string { return it.FragmentID },
				func(it *types.NoteFragment, n int) *types.NoteFragment { c := *it; c.SortOrder = n; return &c })
			if err != nil {
				fmt.Fprintln(os.Stderr, "item reorder:", err)
				os.Exit(exitUserError)
			}
			if err := eng.Notes().ReorderItems(ctx, parentID, reordered); err != nil {
				fail("item reorder", err)
			}
		}

		fmt.Println("Reordered items")
		return nil
	},
}

// findItem locates one item by id or exits with a user error.
func findItem[C any](items []C, id string, idOf func(C) string) C {
	for _, it := range items {
		if idOf(it) == id {
			return it
		}
	}
	fmt.Fprintf(os.Stderr, "item update: item %q not found\n", id)
	os.Exit(exitUserError)
	var zero C
	return zero
}

// sequenceItems maps an id sequence onto fresh item copies with dense sort
// orders. Every loaded item must appear in the sequence exactly once.
func sequenceItems[C any](items []C, order []string, idOf func(C) string, withOrder func(C, int) C) ([]C, error) {
	if len(order) != len(items) {
		return nil, fmt.Errorf("order lists %d ids, parent has %d items", len(order), len(items))
	}

	byID := make(map[string]C, len(items))
	for _, it := range items {
		byID[idOf(it)] = it
	}

	out := make([]C, 0, len(order))
	for pos, id := range order {
		it, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("unknown item id %q", id)
		}
		out = append(out, withOrder(it, pos))
		delete(byID, strings.TrimSpace(id))
	}
	return out, nil
}

func checkbox(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}

func init() {
	itemListCmd.Flags().StringVar(&itemListKind, "kind", "", "parent kind (task-list, ref-list, note)")
	itemListCmd.MarkFlagRequired("kind")

	itemAddCmd.Flags().StringVar(&itemAddKind, "kind", "", "parent kind (task-list, ref-list, note)")
	itemAddCmd.MarkFlagRequired("kind")

	itemUpdateCmd.Flags().StringVar(&itemUpdateKind, "kind", "", "parent kind (task-list, ref-list, note)")
	itemUpdateCmd.Flags().StringVar(&itemUpdateParent, "parent", "", "parent id (required)")
	itemUpdateCmd.Flags().StringVar(&itemUpdateText, "text", "", "new text")
	itemUpdateCmd.Flags().BoolVar(&itemUpdateDone, "done", false, "checked state")
	itemUpdateCmd.MarkFlagRequired("kind")
	itemUpdateCmd.MarkFlagRequired("parent")

	itemDeleteCmd.Flags().StringVar(&itemDeleteKind, "kind", "", "parent kind (task-list, ref-list, note)")
	itemDeleteCmd.Flags().StringVar(&itemDeleteParent, "parent", "", "parent id (required)")
	itemDeleteCmd.MarkFlagRequired("kind")
	itemDeleteCmd.MarkFlagRequired("parent")

	itemReorderCmd.Flags().StringVar(&itemReorderKind, "kind", "", "parent kind (task-list, ref-list, note)")
	itemReorderCmd.Flags().StringVar(&itemReorderOrder, "order", "", "comma-separated item ids in the new order (required)")
	itemReorderCmd.MarkFlagRequired("kind")
	itemReorderCmd.MarkFlagRequired("order")

	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemUpdateCmd)
	itemCmd.AddCommand(itemDeleteCmd)
	itemCmd.AddCommand(itemReorderCmd)
}
