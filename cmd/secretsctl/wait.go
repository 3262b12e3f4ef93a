package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/client"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the secrets daemon to be ready",
	Long: `Wait for the secrets daemon to be ready by polling the status endpoint.

This command will repeatedly check the daemon status until it responds
successfully or the maximum number of retries is reached.

Example:
  secretsctl wait
  secretsctl wait --socket /tmp/secrets.socket --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")

		if err := waitForServer(cmd.Context(), newClient(cmd), retries, time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon did not become ready: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Secrets daemon is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForServer(ctx context.Context, c *client.Client, retries int, interval time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := c.Status(reqCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("not ready after %d attempts: %w", retries, lastErr)
}
