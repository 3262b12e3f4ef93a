package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

// MigrationsTable is the table golang-migrate records the schema version in.
const MigrationsTable = "go_schema_migrations"

// ErrNoURL is returned when no database URL is configured.
var ErrNoURL = errors.New("AUDIT_DATABASE_URL environment variable is required")

//go:embed migrations/*.sql
var migrations embed.FS

// URL returns the database URL from environment.
// Returns empty string if AUDIT_DATABASE_URL is not set.
func URL() string {
	return os.Getenv("AUDIT_DATABASE_URL")
}

// Open opens a connection pool to dbURL.
func Open(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, ErrNoURL
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// WithMigrationsTable adds the migrations table parameter to dbURL.
func WithMigrationsTable(dbURL string) string {
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + MigrationsTable
	}
	return dbURL + "?x-migrations-table=" + MigrationsTable
}

// NewMigrate creates a migrate instance applying the embedded migrations
// to dbURL.
func NewMigrate(dbURL string) (*migrate.Migrate, error) {
	if dbURL == "" {
		return nil, ErrNoURL
	}
	migrationsFS, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, WithMigrationsTable(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrationFiles lists the embedded up migrations in order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
