package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/client"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/file"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/memory"
)

// ServerConfig holds the SECRETS_* overrides of a test daemon
type ServerConfig struct {
	Env map[string]string
}

// ServerInstance represents a running daemon for a single scenario
type ServerInstance struct {
	SocketPath string

	dir     string
	config  ServerConfig
	server  *server.Server
	done    chan error
	process *exec.Cmd
}

// StartServer starts a daemon keeping its socket and namespace files in dir.
// Starting again on the same dir serves the namespaces left behind.
func StartServer(tc *TestContext, dir string, cfg ServerConfig) (*ServerInstance, error) {
	si := &ServerInstance{
		SocketPath: filepath.Join(dir, "secrets.socket"),
		dir:        dir,
		config:     cfg,
	}

	env := map[string]string{
		"SECRETS_CONFIG_PATH": dir,
		"SECRETS_SOCKET_PATH": si.SocketPath,
		"SECRETS_DB_PATH":     filepath.Join(dir, "db"),
	}
	for key, val := range cfg.Env {
		env[key] = val
	}

	var err error
	if tc.InlineMode {
		err = si.startInline(env)
	} else {
		err = si.startBinary(tc.BinaryPath, env)
	}
	if err != nil {
		return nil, err
	}

	if err := waitForServer(si.SocketPath, 30*time.Second); err != nil {
		_ = si.Stop()
		return nil, err
	}
	return si, nil
}

func (si *ServerInstance) startInline(env map[string]string) error {
	restore := setEnv(env)
	cfg, err := config.Load()
	restore()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	storage, err := file.NewStorage(cfg.DBPath)
	if err != nil {
		return err
	}
	registry := memory.NewRegistry(cfg.Limits(), storage.Persister)

	si.server = server.NewServer(registry, storage, cfg, zap.NewNop())
	endpoints.RegisterAll(si.server)
	if err := si.server.Listen(); err != nil {
		return err
	}

	si.done = make(chan error, 1)
	go func() { si.done <- si.server.Serve() }()
	return nil
}

func (si *ServerInstance) startBinary(binaryPath string, env map[string]string) error {
	cmd := exec.Command(binaryPath, "server")
	cmd.Env = os.Environ()
	for key, val := range env {
		cmd.Env = append(cmd.Env, key+"="+val)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start binary: %w", err)
	}
	si.process = cmd
	return nil
}

// Stop shuts the daemon down gracefully.
func (si *ServerInstance) Stop() error {
	if si.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := si.server.Shutdown(ctx); err != nil {
			return err
		}
		return <-si.done
	}
	if si.process != nil && si.process.Process != nil {
		_ = si.process.Process.Signal(os.Interrupt)
		return si.process.Wait()
	}
	return nil
}

// Restart stops the daemon and starts a new one on the same files.
func (si *ServerInstance) Restart(tc *TestContext) (*ServerInstance, error) {
	if err := si.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop daemon: %w", err)
	}
	return StartServer(tc, si.dir, si.config)
}

// setEnv applies env and returns a function restoring the previous values.
func setEnv(env map[string]string) func() {
	old := make(map[string]*string, len(env))
	for key, val := range env {
		if prev, ok := os.LookupEnv(key); ok {
			old[key] = &prev
		} else {
			old[key] = nil
		}
		_ = os.Setenv(key, val)
	}
	return func() {
		for key, prev := range old {
			if prev == nil {
				_ = os.Unsetenv(key)
			} else {
				_ = os.Setenv(key, *prev)
			}
		}
	}
}

// waitForServer polls the daemon until it responds or times out
func waitForServer(socketPath string, timeout time.Duration) error {
	c := client.New(socketPath, client.WithTimeout(2*time.Second))
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if _, err := c.Status(context.Background()); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("daemon did not become ready within %v", timeout)
}
