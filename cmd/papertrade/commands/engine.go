package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// engineCmd represents the engine command
var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Run the rebalancing engine",
	Long: `Runs the rebalancing pipeline from the command line.

Each run fetches the strategy's screen, ranks the candidates, sells
holdings that dropped out of the top N, buys the entrants and records
the resulting net worth.

Subcommands:
  run <strategy-id>  - rebalance one strategy
  run-all            - rebalance every strategy

Example:
  go run ./cmd/papertrade engine run 6f1c1f8e-3f7e-4c55-9c1b-6a8e2a3f0d11
  go run ./cmd/papertrade engine run-all`,
}

var (
	engineRunCmd = &cobra.Command{
		Use:   "run [strategy-id]",
		Short: "Rebalance one strategy",
		Args:  cobra.ExactArgs(1),
		RunE:  runEngine,
	}

	engineRunAllCmd = &cobra.Command{
		Use:   "run-all",
		Short: "Rebalance every strategy",
		RunE:  runEngineAll,
	}
)

func init() {
	rootCmd.AddCommand(engineCmd)
	engineCmd.AddCommand(engineRunCmd)
	engineCmd.AddCommand(engineRunAllCmd)
}

// runContext is cancelled by Ctrl+C and bounded by ENGINE_RUN_TIMEOUT
func runContext(parent context.Context, a *app) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if a.cfg.Engine.RunTimeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Engine.RunTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runEngine(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid strategy id %q: %w", args[0], err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := runContext(cmd.Context(), a)
	defer cancel()

	result, err := a.engine.Run(ctx, id)
	PrintRunResult(result)
	return err
}

func runEngineAll(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := runContext(cmd.Context(), a)
	defer cancel()

	results, err := a.engine.RunAll(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		PrintRunResult(r)
		if !r.Success {
			failed++
		}
	}

	fmt.Println()
	fmt.Printf("%d strategies, %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d strategies failed", failed, len(results))
	}
	return nil
}
