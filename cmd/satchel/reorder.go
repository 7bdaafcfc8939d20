// Reorder command for the satchel CLI: move one entry of the unified view.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var reorderFilter string

var reorderCmd = &cobra.Command{
	Use:   "reorder OLD_INDEX NEW_INDEX",
	Short: "Move a content entry within the filtered view",
	Long: `Move the entry at OLD_INDEX to NEW_INDEX within the filtered view of
the selected space. Indices refer to positions in 'satchel content list'
output under the same filter. All affected entries are renumbered to dense
sort orders.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldIndex, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "reorder: invalid OLD_INDEX %q\n", args[0])
			os.Exit(exitUserError)
		}
		newIndex, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "reorder: invalid NEW_INDEX %q\n", args[1])
			os.Exit(exitUserError)
		}

		filter, err := parseFilter(reorderFilter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "reorder:", err)
			os.Exit(exitUserError)
		}

		eng, err := openEngine()
		if err != nil {
			fail("reorder", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "reorder")

		if err := eng.View().Reorder(cmd.Context(), filter, oldIndex, newIndex); err != nil {
			fail("reorder", err)
		}

		fmt.Println("Reordered content")
		return nil
	},
}

func init() {
	reorderCmd.Flags().StringVar(&reorderFilter, "filter", "all", "kind filter (all, task-list, ref-list, note)")
}
