package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/logging"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/file"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/memory"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the secrets daemon",
	Long: `Run the secrets daemon on its Unix socket.

Configuration is read from secrets.yml in SECRETS_CONFIG_PATH and from
SECRETS_* environment variables. With --watch-config, limits are reloaded
whenever the config file changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch-config")

		cfg, err := config.Reload()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("socket") {
			cfg.SocketPath, _ = cmd.Flags().GetString("socket")
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to create logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logging.Sync(logger) }()

		if err := runServer(cfg, logger, watch); err != nil {
			logger.Error("server failed", zap.Error(err))
			_ = logging.Sync(logger)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().Bool("watch-config", false, "reload limits when the config file changes")
}

func runServer(cfg *config.SecretsConfig, logger *zap.Logger, watch bool) error {
	audit.SetEnabled(cfg.AuditEnabled)

	storage, err := file.NewStorage(cfg.DBPath)
	if err != nil {
		return err
	}
	registry := memory.NewRegistry(cfg.Limits(), storage.Persister)

	s := server.NewServer(registry, storage, cfg, logger)
	endpoints.RegisterAll(s)
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch {
		watcher, err := config.NewWatcher(
			func(next *config.SecretsConfig) {
				registry.SetLimits(next.Limits())
				audit.SetEnabled(next.AuditEnabled)
				logger.Info("configuration reloaded",
					zap.Int("max_secrets", next.MaxSecrets),
					zap.Int64("max_payload_size", next.MaxPayloadSize),
					zap.Int("max_nest_level", next.MaxNestLevel),
				)
			},
			func(err error) {
				logger.Warn("configuration not reloaded", zap.Error(err))
			},
		)
		if err != nil {
			_ = s.Shutdown(context.Background())
			return err
		}
		go func() { _ = watcher.Run(ctx) }()
	}

	logger.Info("starting server",
		zap.String("version", server.Version),
		zap.String("db_path", storage.Dir()),
		zap.Any("limits", cfg.Limits()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if audit.DefaultStore != nil {
		_ = audit.DefaultStore.Close()
	}
	return <-errCh
}
