package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/client"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/file"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/memory"
)

func TestMain(m *testing.M) {
	audit.DefaultLogger.SetWriter(io.Discard)
	os.Exit(m.Run())
}

// startDaemon serves a file-backed registry the way the server command does.
func startDaemon(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SocketPath = filepath.Join(dir, "secrets.socket")
	cfg.DBPath = filepath.Join(dir, "db")

	storage, err := file.NewStorage(cfg.DBPath)
	require.NoError(t, err)
	registry := memory.NewRegistry(cfg.Limits(), storage.Persister)

	s := server.NewServer(registry, storage, cfg, zaptest.NewLogger(t))
	endpoints.RegisterAll(s)
	require.NoError(t, s.Listen())
	go func() { _ = s.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return cfg.SocketPath
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSecretCommands(t *testing.T) {
	socket := startDaemon(t)

	execute(t, "", "--socket", socket, "mkdir", "app")
	execute(t, "", "--socket", socket, "put", "app/token", "t0k3n")
	execute(t, "from stdin\n", "--socket", socket, "put", "app/cert")

	assert.Equal(t, "t0k3n", execute(t, "", "--socket", socket, "get", "app/token"))
	assert.Equal(t, "from stdin\n", execute(t, "", "--socket", socket, "get", "app/cert"))
	assert.Equal(t, "app\n", execute(t, "", "--socket", socket, "list"))
	assert.Equal(t, "cert\ntoken\n", execute(t, "", "--socket", socket, "ls", "app/"))

	execute(t, "", "--socket", socket, "delete", "app/token")
	execute(t, "", "--socket", socket, "rm", "app/cert")
	execute(t, "", "--socket", socket, "delete", "app/")

	_, err := client.New(socket).ListSecrets(context.Background(), "")
	assert.True(t, client.IsStatus(err, 404))
}

func TestSecretValue(t *testing.T) {
	value, err := secretValue(strings.NewReader("ignored"), []string{"key", "arg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("arg"), value)

	value, err = secretValue(strings.NewReader("piped"), []string{"key"})
	require.NoError(t, err)
	assert.Equal(t, []byte("piped"), value)
}

func TestWaitForServer(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		socket := startDaemon(t)
		err := waitForServer(context.Background(), client.New(socket), 3, 10*time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("never ready", func(t *testing.T) {
		c := client.New(filepath.Join(t.TempDir(), "absent.socket"))
		err := waitForServer(context.Background(), c, 3, 10*time.Millisecond)
		assert.ErrorContains(t, err, "not ready after 3 attempts")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := client.New(filepath.Join(t.TempDir(), "absent.socket"))
		err := waitForServer(ctx, c, 100, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestShowConfiguration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRETS_CONFIG_PATH", dir)
	t.Setenv("SECRETS_MAX_SECRETS", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("max_secrets: 3\n"), 0o600))

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConfiguration(&out, "text"))
		assert.Contains(t, out.String(), "max_secrets")
		assert.Contains(t, out.String(), config.SourceFile)
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConfiguration(&out, "json"))

		var result struct {
			Attributes []config.Attribute `json:"attributes"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Contains(t, result.Attributes, config.Attribute{Name: "max_secrets", Value: "3", Source: config.SourceFile})
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, showConfiguration(io.Discard, "yaml"))
	})
}
