package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/internal/store"
	"github.com/wonny/papertrade/pkg/logger"
)

// screenerCmd represents the screener command
var screenerCmd = &cobra.Command{
	Use:   "screener",
	Short: "Probe the upstream screener",
	Long: `Fetches and ranks a screen, or looks up a current price, without
touching any wallet. No database connection is opened.

Example:
  go run ./cmd/papertrade screener rank --url /screens/123/quality/
  go run ./cmd/papertrade screener rank --url /screens/123/quality/ --weights '{"roce":1}'
  go run ./cmd/papertrade screener price TCS`,
}

var (
	screenerRankCmd = &cobra.Command{
		Use:   "rank",
		Short: "Rank a screen's candidates",
		RunE:  rankScreen,
	}

	screenerPriceCmd = &cobra.Command{
		Use:   "price [stock_code]",
		Short: "Fetch the current price of a stock",
		Args:  cobra.ExactArgs(1),
		RunE:  fetchPrice,
	}
)

var (
	rankURL     string
	rankWeights string
)

func init() {
	rootCmd.AddCommand(screenerCmd)
	screenerCmd.AddCommand(screenerRankCmd)
	screenerCmd.AddCommand(screenerPriceCmd)

	// Flags
	screenerRankCmd.Flags().StringVar(&rankURL, "url", "", "screener URL (required)")
	screenerRankCmd.Flags().StringVar(&rankWeights, "weights", "", "weights as JSON (default vector when empty)")
	_ = screenerRankCmd.MarkFlagRequired("url")
}

func rankScreen(cmd *cobra.Command, args []string) error {
	weights := contracts.DefaultWeights()
	custom, err := parseWeights(rankWeights)
	if err != nil {
		return err
	}
	if custom != nil {
		if err := custom.Validate(); err != nil {
			return err
		}
		weights = *custom
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	// Preview never writes; an in-memory store satisfies the engine
	eng := engine.New(store.NewMemory(), newSource(cfg, log), nil, engine.ConfigFrom(cfg), log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ranked, err := eng.Preview(ctx, rankURL, weights)
	if err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("Top %d of %s", len(ranked), rankURL))
	PrintRanking(ranked)
	return nil
}

func fetchPrice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	price, err := newSource(cfg, log).FetchCurrentPrice(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %.2f\n", args[0], price)
	return nil
}
