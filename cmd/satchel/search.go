// Search command for the satchel CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search content in the selected space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			fail("search", err)
		}
		defer eng.Close()

		requireCurrentSpace(cmd, eng, "search")

		entries := eng.View().Search(args[0])
		if flagJSON {
			printJSON(entries)
			return nil
		}

		for _, entry := range entries {
			fmt.Printf("%-9s  %s  %s\n", kindLabel(entry.Kind), entry.ID(), entry.DisplayName())
		}
		return nil
	},
}
