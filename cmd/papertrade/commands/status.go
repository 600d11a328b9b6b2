package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database and Redis health",
	Long: `Checks the backing services and prints their state.

Shown:
- Database: ping latency and pool statistics
- Schema: migration version
- Redis: ping (when REDIS_ENABLED)

Example:
  go run ./cmd/papertrade status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("papertrade status")

	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("%-15s ❌ %s\n", "Database:", health.Error)
	} else {
		fmt.Printf("%-15s ✅ %s\n", "Database:", health.ResponseTime.Round(time.Microsecond))
		fmt.Printf("%-15s %d/%d (idle %d)\n", "Connections:", health.Stats.TotalConns, health.Stats.MaxConns, health.Stats.IdleConns)
	}

	if mg, err := database.NewMigrator(a.cfg.Database.URL); err != nil {
		fmt.Printf("%-15s ❌ %v\n", "Schema:", err)
	} else {
		version, dirty, err := mg.Version()
		switch {
		case err != nil:
			fmt.Printf("%-15s ❌ %v\n", "Schema:", err)
		case dirty:
			fmt.Printf("%-15s ⚠️  version %d (dirty)\n", "Schema:", version)
		default:
			fmt.Printf("%-15s ✅ version %d\n", "Schema:", version)
		}
		_ = mg.Close()
	}

	if !a.redis.Enabled() {
		fmt.Printf("%-15s disabled\n", "Redis:")
	} else if err := a.redis.Ping(ctx); err != nil {
		fmt.Printf("%-15s ❌ %v\n", "Redis:", err)
	} else {
		fmt.Printf("%-15s ✅ ok\n", "Redis:")
	}
	fmt.Println()

	return nil
}
