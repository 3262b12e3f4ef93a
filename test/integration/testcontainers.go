package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/db"
)

// TestContext holds the resources shared by every scenario
type TestContext struct {
	InlineMode bool
	BinaryPath string

	// AuditStore reads back audit records. It is nil unless the suite runs
	// with an audit database.
	AuditStore  *audit.Store
	Container   testcontainers.Container
	DatabaseURL string
}

// NewTestContext prepares the suite.
// Modes:
//   - Binary mode (default): Set SECRETS_BINARY to the path of the secretsctl binary
//   - Inline mode: Set SECRETS_INLINE=1 to run the daemon in-process (no binary needed)
//
// With AUDIT_POSTGRES=1 a PostgreSQL testcontainer is started and the daemons
// copy their audit records to it.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	inlineMode := os.Getenv("SECRETS_INLINE") == "1"
	binaryPath := os.Getenv("SECRETS_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either SECRETS_BINARY or SECRETS_INLINE=1 is required.\n\nBinary mode:\n  go build -o secretsctl ./cmd/secretsctl\n  INTEGRATION_TEST=1 SECRETS_BINARY=$(pwd)/secretsctl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 SECRETS_INLINE=1 go test -v ./test/integration/...")
	}

	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("SECRETS_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	tc := &TestContext{
		InlineMode: inlineMode,
		BinaryPath: binaryPath,
	}

	if os.Getenv("AUDIT_POSTGRES") == "1" {
		if err := tc.startAuditDatabase(ctx); err != nil {
			tc.Close(ctx)
			return nil, err
		}
	}
	return tc, nil
}

// startAuditDatabase runs PostgreSQL, migrates it and points
// AUDIT_DATABASE_URL at it.
func (tc *TestContext) startAuditDatabase(ctx context.Context) error {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("secrets_audit"),
		tcpostgres.WithUsername("secrets"),
		tcpostgres.WithPassword("secrets"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.Container = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}
	tc.DatabaseURL = connStr

	m, err := db.NewMigrate(connStr)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	_, _ = m.Close()

	tc.AuditStore, err = audit.NewStore(connStr)
	if err != nil {
		return err
	}
	return os.Setenv("AUDIT_DATABASE_URL", connStr)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.AuditStore != nil {
		_ = tc.AuditStore.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
