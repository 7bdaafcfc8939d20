// Content commands for the satchel CLI, operating on the unified view of
// the selected space.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/internal/engine"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

var (
	contentListFilter string

	contentCreateKind        string
	contentCreateDescription string
	contentCreateBody        string
	contentCreatePinned      bool

	contentUpdateKind        string
	contentUpdateName        string
	contentUpdateDescription string
	contentUpdateBody        string
	contentUpdatePinned      bool

	contentDeleteKind string
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage content in the selected space",
}

// requireCurrentSpace starts the engine and returns the selected space id,
// exiting if none is selected.
func requireCurrentSpace(cmd *cobra.Command, eng *engine.Engine, prefix string) string {
	if err := eng.Start(cmd.Context()); err != nil {
		fail(prefix, err)
	}
	current := eng.Spaces().Current()
	if current == nil {
		fmt.Fprintf(os.Stderr, "%s: no space selected; create one with 'satchel space create'\n", prefix)
		os.Exit(exitUserError)
	}
	return current.SpaceID
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content in the selected space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("content list", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "content list")

		filter, err := parseFilter(contentListFilter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "content list:", err)
			os.Exit(exitUserError)
		}

		entries := eng.View().Filtered(filter)
		if flagJSON {
			printJSON(entries)
			return nil
		}

		for _, entry := range entries {
			fmt.Printf("%3d  %-9s  %s  %s\n", entry.SortOrder(), kindLabel(entry.Kind), entry.ID(), entry.DisplayName())
		}
		return nil
	},
}

var contentCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a task list, ref list, or note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(contentCreateKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "content create:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("content create", err)
		}
		defer eng.Close()

		spaceID := requireCurrentSpace(cmd, eng, "content create")

		entry, err := eng.CreateEntry(cmd.Context(), spaceID, engine.NewEntry{
			Kind:        kind,
			Name:        args[0],
			Description: contentCreateDescription,
			Body:        contentCreateBody,
			Pinned:      contentCreatePinned,
		})
		if err != nil {
			fail("content create", err)
		}

		if flagJSON {
			printJSON(entry)
		} else {
			fmt.Printf("Created %s: %s\n", kindLabel(kind), entry.ID())
		}
		return nil
	},
}

var contentUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Update a task list, ref list, or note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(contentUpdateKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "content update:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("content update", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "content update")
		ctx := cmd.Context()
		id := args[0]

		switch kind {
		case types.KindTaskList:
			target := findTaskList(eng, id)
			next := *target
			if cmd.Flags().Changed("name") {
				next.Name = contentUpdateName
			}
			if cmd.Flags().Changed("description") {
				next.Description = contentUpdateDescription
			}
			if _, err := eng.TaskLists().Update(ctx, &next); err != nil {
				fail("content update", err)
			}
		case types.KindRefList:
			target := findRefList(eng, id)
			next := *target
			if cmd.Flags().Changed("name") {
				next.Name = contentUpdateName
			}
			if cmd.Flags().Changed("description") {
				next.Description = contentUpdateDescription
			}
			if _, err := eng.RefLists().Update(ctx, &next); err != nil {
				fail("content update", err)
			}
		case types.KindNote:
			target := findNote(eng, id)
			next := *target
			if cmd.Flags().Changed("name") {
				next.Title = contentUpdateName
			}
			if cmd.Flags().Changed("body") {
				next.Content = contentUpdateBody
			}
			if cmd.Flags().Changed("pinned") {
				next.Pinned = contentUpdatePinned
			}
			if _, err := eng.Notes().Update(ctx, &next); err != nil {
				fail("content update", err)
			}
		}

		fmt.Printf("Updated %s: %s\n", kindLabel(kind), id)
		return nil
	},
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a task list, ref list, or note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(contentDeleteKind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "content delete:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("content delete", err)
		}
		defer eng.Close()

		spaceID := requireCurrentSpace(cmd, eng, "content delete")

		if err := eng.DeleteEntry(cmd.Context(), spaceID, kind, args[0]); err != nil {
			fail("content delete", err)
		}

		fmt.Printf("Deleted %s: %s\n", kindLabel(kind), args[0])
		return nil
	},
}

func findTaskList(eng *engine.Engine, id string) *types.TaskList {
	for _, l := range eng.TaskLists().Entities() {
		if l.ListID == id {
			return l
		}
	}
	fail("content update", fmt.Errorf("task list %q: %w", id, types.ErrNotFound))
	return nil
}

func findRefList(eng *engine.Engine, id string) *types.RefList {
	for _, l := range eng.RefLists().Entities() {
		if l.ListID == id {
			return l
		}
	}
	fail("content update", fmt.Errorf("ref list %q: %w", id, types.ErrNotFound))
	return nil
}

func findNote(eng *engine.Engine, id string) *types.Note {
	for _, n := range eng.Notes().Entities() {
		if n.NoteID == id {
			return n
		}
	}
	fail("content update", fmt.Errorf("note %q: %w", id, types.ErrNotFound))
	return nil
}

func init() {
	contentListCmd.Flags().StringVar(&contentListFilter, "filter", "all", "kind filter (all, task-list, ref-list, note)")

	contentCreateCmd.Flags().StringVar(&contentCreateKind, "kind", "", "content kind (task-list, ref-list, note)")
	contentCreateCmd.Flags().StringVar(&contentCreateDescription, "description", "", "list description")
	contentCreateCmd.Flags().StringVar(&contentCreateBody, "body", "", "note body")
	contentCreateCmd.Flags().BoolVar(&contentCreatePinned, "pinned", false, "pin the note")
	contentCreateCmd.MarkFlagRequired("kind")

	contentUpdateCmd.Flags().StringVar(&contentUpdateKind, "kind", "", "content kind (task-list, ref-list, note)")
	contentUpdateCmd.Flags().StringVar(&contentUpdateName, "name", "", "new name or title")
	contentUpdateCmd.Flags().StringVar(&contentUpdateDescription, "description", "", "new list description")
	contentUpdateCmd.Flags().StringVar(&contentUpdateBody, "body", "", "new note body")
	contentUpdateCmd.Flags().BoolVar(&contentUpdatePinned, "pinned", false, "pin or unpin the note")
	contentUpdateCmd.MarkFlagRequired("kind")

	contentDeleteCmd.Flags().StringVar(&contentDeleteKind, "kind", "", "content kind (task-list, ref-list, note)")
	contentDeleteCmd.MarkFlagRequired("kind")

	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentCreateCmd)
	contentCmd.AddCommand(contentUpdateCmd)
	contentCmd.AddCommand(contentDeleteCmd)
}
