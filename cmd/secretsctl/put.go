package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <path> [value]",
	Short: "Create a secret",
	Long: `Create a secret. The value is read from standard input when it is
not given as an argument. Existing secrets are never overwritten.

Example:
  secretsctl put app/token s3cr3t
  secretsctl put app/cert < cert.pem`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := secretValue(cmd.InOrStdin(), args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read value: %v\n", err)
			os.Exit(1)
		}

		if err := newClient(cmd).SetSecret(cmd.Context(), args[0], value); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create secret: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func secretValue(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) > 1 {
		return []byte(args[1]), nil
	}
	return io.ReadAll(stdin)
}
