package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/logging"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/metrics"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

const (
	socketMode    = 0o666
	socketDirMode = 0o755
)

// Version is reported by the status endpoint. It is set at build time.
var Version = "0.1.0"

// ErrSocketInUse is returned when another server answers on the socket.
var ErrSocketInUse = errors.New("socket is in use by another server")

type Server struct {
	Namespaces  store.NamespaceStore
	HealthStore store.HealthStore
	Config      *config.SecretsConfig
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Router      *mux.Router

	srv      *http.Server
	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

func NewServer(
	namespaces store.NamespaceStore,
	healthStore store.HealthStore,
	cfg *config.SecretsConfig,
	logger *zap.Logger,
) *Server {
	router := mux.NewRouter().UseEncodedPath().SkipClean(true)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(namespaces.Usage)
	}

	var handler http.Handler = router
	handler = middleware.PeerIdentity(logger)(handler)
	handler = middleware.RequestLogger(logger, m)(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logging.StdLogger(logger)),
		handlers.PrintRecoveryStack(true),
	)(handler)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.Timeout(),
		ReadTimeout:       cfg.Timeout(),
		WriteTimeout:      cfg.Timeout(),
		IdleTimeout:       2 * cfg.Timeout(),
		ErrorLog:          logging.StdLogger(logger),
		ConnContext: func(ctx context.Context, c net.Conn) context.Context {
			id, err := identity.FromConn(c)
			if err != nil {
				logger.Warn("failed to read peer credentials", zap.Error(err))
				return ctx
			}
			return identity.Set(ctx, id)
		},
	}

	return &Server{
		Namespaces:  namespaces,
		HealthStore: healthStore,
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Router:      router,
		srv:         srv,
	}
}

// Handler returns the full handler chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.Config.SocketPath
}

// Listen creates the socket. A socket file left behind by a server that is
// no longer running is replaced.
func (s *Server) Listen() error {
	path := s.Config.SocketPath
	if err := os.MkdirAll(filepath.Dir(path), socketDirMode); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := removeStaleSocket(path); err != nil {
		return err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, socketMode); err != nil {
		_ = l.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = l.Close()
		return http.ErrServerClosed
	}
	s.listener = l
	return nil
}

// Serve accepts connections until Shutdown is called. Each connection is
// served on its own goroutine.
func (s *Server) Serve() error {
	s.mu.Lock()
	l, closed := s.listener, s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}
	if l == nil {
		return errors.New("server is not listening")
	}

	s.Logger.Info("listening", zap.String("socket", s.Config.SocketPath))
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the socket and serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting connections, waits for in-flight requests and
// removes the socket file. Serve returns nil once Shutdown has been called,
// even if it had not started yet.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.closed = true
	s.mu.Unlock()

	err := s.srv.Shutdown(ctx)
	if l == nil {
		return err
	}

	// Serve may not have taken ownership of l yet.
	if closeErr := l.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) && err == nil {
		err = closeErr
	}
	if rmErr := os.Remove(s.Config.SocketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, path)
	}
	return os.Remove(path)
}
