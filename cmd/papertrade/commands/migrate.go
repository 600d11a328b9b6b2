package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long: `Applies the embedded SQL migrations to DATABASE_URL.

Subcommands:
  up       - apply all pending migrations
  down     - revert migrations (--steps, default 1)
  version  - print the current schema version

Example:
  go run ./cmd/papertrade migrate up
  go run ./cmd/papertrade migrate down --steps 1`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  migrateUp,
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		RunE:  migrateDown,
	}

	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE:  migrateVersion,
	}
)

var (
	migrateSteps int
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	// Flags
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to revert")
}

func openMigrator() (*database.Migrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.NewMigrator(cfg.Database.URL)
}

func migrateUp(cmd *cobra.Command, args []string) error {
	mg, err := openMigrator()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		return err
	}
	return printVersion(mg)
}

func migrateDown(cmd *cobra.Command, args []string) error {
	mg, err := openMigrator()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Down(migrateSteps); err != nil {
		return err
	}
	return printVersion(mg)
}

func migrateVersion(cmd *cobra.Command, args []string) error {
	mg, err := openMigrator()
	if err != nil {
		return err
	}
	defer mg.Close()

	return printVersion(mg)
}

func printVersion(mg *database.Migrator) error {
	version, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Printf("Schema version: %d (%s)\n", version, state)
	return nil
}
