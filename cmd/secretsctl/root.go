package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/client"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "secretsctl",
	Short: "Run and talk to the local secrets daemon",
	Long: `secretsctl runs the secrets daemon and manages the secrets of the
calling user over the daemon socket.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("socket", "s", defaultSocketPath(), "daemon socket path")
}

func defaultSocketPath() string {
	if path := os.Getenv("SECRETS_SOCKET_PATH"); path != "" {
		return path
	}
	return config.DefaultSocketPath
}

// newClient returns a client for the socket named by the --socket flag.
func newClient(cmd *cobra.Command) *client.Client {
	socket, _ := cmd.Flags().GetString("socket")
	return client.New(socket)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
