package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "papertrade - screener-driven paper trading rebalancer",
	Long: `papertrade Unified CLI

Ranks the candidates of a stock screener by a weighted composite score
and rebalances a simulated wallet into the top of the ranking.

Usage:
  go run ./cmd/papertrade [command]

Examples:
  go run ./cmd/papertrade api
  go run ./cmd/papertrade engine run-all
  go run ./cmd/papertrade screener rank --url /screens/123/quality/
  go run ./cmd/papertrade migrate up`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
