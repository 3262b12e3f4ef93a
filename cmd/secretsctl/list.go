package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list [container]",
	Aliases: []string{"ls"},
	Short:   "List the entries of a container",
	Long: `List the entries of a container, one name per line. Without an
argument the root container is listed.

Example:
  secretsctl list
  secretsctl list app/`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		names, err := newClient(cmd).ListSecrets(cmd.Context(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list secrets: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
