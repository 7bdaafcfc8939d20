// Space commands for the satchel CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

var (
	spaceListAll bool

	spaceCreateIcon  string
	spaceCreateColor string

	spaceUpdateName  string
	spaceUpdateIcon  string
	spaceUpdateColor string
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Manage spaces",
}

var spaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space list", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Spaces().Load(ctx, spaceListAll); err != nil {
			fail("space list", err)
		}

		spaces := eng.Spaces().Spaces()
		if flagJSON {
			printJSON(spaces)
			return nil
		}

		current := eng.Spaces().Current()
		for _, s := range spaces {
			marker := " "
			if current != nil && current.SpaceID == s.SpaceID {
				marker = "*"
			}
			status := ""
			if s.IsArchived {
				status = " (archived)"
			}
			fmt.Printf("%s %s  %s%s\n", marker, s.SpaceID, s.Name, status)
		}
		return nil
	},
}

var spaceCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a space and select it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space create", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Start(ctx); err != nil {
			fail("space create", err)
		}

		created, err := eng.Spaces().Add(ctx, &types.Space{
			Name:  args[0],
			Icon:  spaceCreateIcon,
			Color: spaceCreateColor,
		})
		if err != nil {
			fail("space create", err)
		}

		if flagJSON {
			printJSON(created)
		} else {
			fmt.Printf("Created space: %s\n", created.SpaceID)
		}
		return nil
	},
}

var spaceUpdateCmd = &cobra.Command{
	Use:   "update SPACE_ID",
	Short: "Update a space's name, icon, or color",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space update", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Spaces().Load(ctx, true); err != nil {
			fail("space update", err)
		}

		var target *types.Space
		for _, s := range eng.Spaces().Spaces() {
			if s.SpaceID == args[0] {
				target = s
				break
			}
		}
		if target == nil {
			fail("space update", fmt.Errorf("space %q: %w", args[0], types.ErrNotFound))
		}

		next := *target
		if cmd.Flags().Changed("name") {
			next.Name = spaceUpdateName
		}
		if cmd.Flags().Changed("icon") {
			next.Icon = spaceUpdateIcon
		}
		if cmd.Flags().Changed("color") {
			next.Color = spaceUpdateColor
		}

		updated, err := eng.Spaces().Update(ctx, &next)
		if err != nil {
			fail("space update", err)
		}

		if flagJSON {
			printJSON(updated)
		} else {
			fmt.Printf("Updated space: %s\n", updated.SpaceID)
		}
		return nil
	},
}

var spaceArchiveCmd = &cobra.Command{
	Use:   "archive SPACE_ID",
	Short: "Archive a space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space archive", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Spaces().Load(ctx, true); err != nil {
			fail("space archive", err)
		}

		archived, err := eng.Spaces().Archive(ctx, args[0])
		if err != nil {
			fail("space archive", err)
		}

		if flagJSON {
			printJSON(archived)
		} else {
			fmt.Printf("Archived space: %s\n", archived.SpaceID)
		}
		return nil
	},
}

var spaceDeleteCmd = &cobra.Command{
	Use:   "delete SPACE_ID",
	Short: "Delete a space and all of its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space delete", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Start(ctx); err != nil {
			fail("space delete", err)
		}

		if err := eng.Spaces().Delete(ctx, args[0]); err != nil {
			fail("space delete", err)
		}

		fmt.Printf("Deleted space: %s\n", args[0])
		return nil
	},
}

var spaceSwitchCmd = &cobra.Command{
	Use:   "switch SPACE_ID",
	Short: "Select a space and remember the selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space switch", err)
		}
		defer eng.Close()

		ctx := cmd.Context()
		if err := eng.Start(ctx); err != nil {
			fail("space switch", err)
		}

		if err := eng.SwitchSpace(ctx, args[0]); err != nil {
			fail("space switch", err)
		}

		fmt.Printf("Switched to space: %s\n", args[0])
		return nil
	},
}

var spaceCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the selected space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space current", err)
		}
		defer eng.Close()

		if err := eng.Start(cmd.Context()); err != nil {
			fail("space current", err)
		}

		current := eng.Spaces().Current()
		if current == nil {
			fmt.Println("No space selected")
			return nil
		}

		if flagJSON {
			printJSON(current)
		} else {
			fmt.Printf("%s  %s (%d items)\n", current.SpaceID, current.Name, current.ItemCount)
		}
		return nil
	},
}

var spaceCountCmd = &cobra.Command{
	Use:   "count SPACE_ID",
	Short: "Show a space's authoritative item count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("space count", err)
		}
		defer eng.Close()

		count, err := eng.Spaces().ItemCount(cmd.Context(), args[0])
		if err != nil {
			fail("space count", err)
		}

		if flagJSON {
			printJSON(map[string]int{"count": count})
		} else {
			fmt.Println(count)
		}
		return nil
	},
}

func init() {
	spaceListCmd.Flags().BoolVar(&spaceListAll, "all", false, "include archived spaces")

	spaceCreateCmd.Flags().StringVar(&spaceCreateIcon, "icon", "", "space icon")
	spaceCreateCmd.Flags().StringVar(&spaceCreateColor, "color", "", "space color")

	spaceUpdateCmd.Flags().StringVar(&spaceUpdateName, "name", "", "new name")
	spaceUpdateCmd.Flags().StringVar(&spaceUpdateIcon, "icon", "", "new icon")
	spaceUpdateCmd.Flags().StringVar(&spaceUpdateColor, "color", "", "new color")

	spaceCmd.AddCommand(spaceListCmd)
	spaceCmd.AddCommand(spaceCreateCmd)
	spaceCmd.AddCommand(spaceUpdateCmd)
	spaceCmd.AddCommand(spaceArchiveCmd)
	spaceCmd.AddCommand(spaceDeleteCmd)
	spaceCmd.AddCommand(spaceSwitchCmd)
	spaceCmd.AddCommand(spaceCurrentCmd)
	spaceCmd.AddCommand(spaceCountCmd)
}
