package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/db"
)

// auditMigrateCmd represents the audit migrate command
var auditMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the audit database schema",
	Long: `Create and/or upgrade the audit database schema.

This command runs all pending migrations embedded in the binary.

Example:
  secretsctl audit migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrations(db.URL()); err != nil {
			fmt.Println("Migration failed:", err)
			os.Exit(1)
		}
	},
}

// auditDownCmd represents the audit down command
var auditDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback audit database migrations",
	Long: `Rollback audit database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  secretsctl audit down      # Rollback 1 migration
  secretsctl audit down 2    # Rollback 2 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "Invalid number of steps: %s\n", args[0])
				os.Exit(1)
			}
			steps = n
		}

		if err := runMigrationsDown(db.URL(), steps); err != nil {
			fmt.Println("Rollback failed:", err)
			os.Exit(1)
		}
	},
}

// auditStatusCmd represents the audit status command
var auditStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current audit schema version",
	Long:  `Show the current audit database migration version.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showMigrationStatus(db.URL()); err != nil {
			fmt.Println("Failed to get status:", err)
			os.Exit(1)
		}
	},
}

func init() {
	auditCmd.AddCommand(auditMigrateCmd)
	auditCmd.AddCommand(auditDownCmd)
	auditCmd.AddCommand(auditStatusCmd)
}

func runMigrations(dbURL string) error {
	m, err := db.NewMigrate(dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to run - database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	fmt.Printf("Migrated to version: %d\n", newVersion)
	fmt.Println("Migrations complete")
	return nil
}

func runMigrationsDown(dbURL string, steps int) error {
	m, err := db.NewMigrate(dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to rollback")
			return nil
		}
		return fmt.Errorf("rollback failed: %w", err)
	}

	newVersion, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("Rolled back all migrations")
		return nil
	}
	fmt.Printf("Rolled back to version: %d\n", newVersion)
	return nil
}

func showMigrationStatus(dbURL string) error {
	m, err := db.NewMigrate(dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations have been applied")
		return nil
	}
	if err != nil {
		return err
	}

	files, err := db.MigrationFiles()
	if err != nil {
		return err
	}
	fmt.Printf("Version: %d (dirty: %v), %d migrations available\n", version, dirty, len(files))
	return nil
}
