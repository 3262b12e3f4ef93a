package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:     "delete <path>",
	Aliases: []string{"rm"},
	Short:   "Delete a secret or an empty container",
	Long: `Delete a secret, or an empty container when the path ends with "/".

Example:
  secretsctl delete app/token
  secretsctl delete app/`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient(cmd).DeleteSecret(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
