package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/internal/api"
	"github.com/wonny/papertrade/internal/api/handlers"
	"github.com/wonny/papertrade/internal/realtime"
	"github.com/wonny/papertrade/internal/strategy"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- serves strategy CRUD and the paper account read side
- exposes the bearer-guarded rebalancing trigger
- streams finished runs over a websocket

Endpoints:
  GET  /health                              - Health check
  GET  /api/strategies                      - List strategies
  POST /api/strategies                      - Create a strategy
  PUT  /api/strategies/{id}                 - Update a strategy
  GET  /api/strategies/{id}/portfolio       - Wallet and positions
  GET  /api/strategies/{id}/transactions    - Trade ledger
  GET  /api/strategies/{id}/history         - Net worth history
  GET|POST /api/run-engine/{id}             - Rebalance one strategy (bearer)
  GET|POST /api/run-engine                  - Rebalance every strategy (bearer)
  GET  /ws/runs                             - Run event feed

Example:
  go run ./cmd/papertrade api
  go run ./cmd/papertrade api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== papertrade API Server ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, log := a.cfg, a.log

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// Finished runs are broadcast to websocket subscribers
	hub := realtime.NewHub(log)
	defer hub.Close()
	a.engine.WithNotifier(hub)

	router := api.NewRouter(api.Handlers{
		Engine:    handlers.NewEngineHandler(a.engine, cfg.Engine.RunTimeout, log),
		Strategy:  handlers.NewStrategyHandler(strategy.NewService(a.store, log), log),
		Portfolio: handlers.NewPortfolioHandler(a.store, log),
		RunFeed:   hub,
	}, cfg.CronSecret, log)

	server := api.New(cfg, log, router)

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/strategies")
	fmt.Println("  POST /api/strategies")
	fmt.Println("  PUT  /api/strategies/{id}")
	fmt.Println("  GET  /api/strategies/{id}/portfolio")
	fmt.Println("  GET  /api/strategies/{id}/transactions")
	fmt.Println("  GET  /api/strategies/{id}/history")
	fmt.Println("  GET|POST /api/run-engine/{id}")
	fmt.Println("  GET|POST /api/run-engine")
	fmt.Println("  GET  /ws/runs")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
