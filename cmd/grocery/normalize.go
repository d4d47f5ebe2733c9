package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grocery-engine/internal/core/grocery"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Print the normalized key for each ingredient name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, grocery.Normalize(name))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
