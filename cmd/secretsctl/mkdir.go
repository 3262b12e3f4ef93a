package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/client"
)

// mkdirCmd represents the mkdir command
var mkdirCmd = &cobra.Command{
	Use:   "mkdir <container>",
	Short: "Create a container",
	Long: `Create an empty container. Parent containers must already exist. The
trailing separator is appended when missing.

Example:
  secretsctl mkdir app/`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newClient(cmd).CreateContainer(cmd.Context(), client.ContainerPath(args[0])); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create container: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
