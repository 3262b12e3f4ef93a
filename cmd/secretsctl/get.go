package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print the value of a secret",
	Long: `Print the value of a secret to standard output, as stored.

Example:
  secretsctl get app/token`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := newClient(cmd).GetSecret(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get secret: %v\n", err)
			os.Exit(1)
		}
		_, _ = cmd.OutOrStdout().Write(value)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
