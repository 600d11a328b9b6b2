package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/internal/contracts"
	"github.com/wonny/papertrade/internal/strategy"
)

// strategyCmd represents the strategy command
var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage strategies",
	Long: `Lists, creates and imports strategies.

Weights are given as JSON keyed by metric name and must be multiples
of 0.05 summing to 1.00. Omitted weights use the default vector.

Example:
  go run ./cmd/papertrade strategy list
  go run ./cmd/papertrade strategy create --name quality --url /screens/123/quality/
  go run ./cmd/papertrade strategy create --name value --url /screens/9/value/ \
    --weights '{"roce":0.5,"inverted_pe":0.5}'
  go run ./cmd/papertrade strategy import config/strategies.yaml`,
}

var (
	strategyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List strategies",
		RunE:  listStrategies,
	}

	strategyCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a strategy",
		RunE:  createStrategy,
	}

	strategyImportCmd = &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Create or update strategies from a YAML file (matched by name)",
		Args:  cobra.ExactArgs(1),
		RunE:  importStrategies,
	}
)

var (
	strategyName    string
	strategyURL     string
	strategyWeights string
	strategyOwner   string
)

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyListCmd)
	strategyCmd.AddCommand(strategyCreateCmd)
	strategyCmd.AddCommand(strategyImportCmd)

	// Flags
	strategyCreateCmd.Flags().StringVar(&strategyName, "name", "", "strategy name (required)")
	strategyCreateCmd.Flags().StringVar(&strategyURL, "url", "", "screener URL, absolute or relative to SCREENER_BASE_URL (required)")
	strategyCreateCmd.Flags().StringVar(&strategyWeights, "weights", "", "weights as JSON (default vector when empty)")
	strategyCreateCmd.Flags().StringVar(&strategyOwner, "owner", "", "owner id")
	_ = strategyCreateCmd.MarkFlagRequired("name")
	_ = strategyCreateCmd.MarkFlagRequired("url")
}

// parseWeights decodes a JSON weight vector. Unknown keys are rejected.
func parseWeights(raw string) (*contracts.Weights, error) {
	if raw == "" {
		return nil, nil
	}

	var w contracts.Weights
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("invalid weights JSON: %w", err)
	}
	return &w, nil
}

func listStrategies(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	strategies, err := strategy.NewService(a.store, a.log).List(cmd.Context())
	if err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("Strategies (%d)", len(strategies)))
	for _, st := range strategies {
		weights := "default"
		if st.Weights != nil {
			weights = "custom"
		}
		fmt.Printf("  %s  %-24s %-8s %s\n", st.ID, st.Name, weights, st.SourceURL)
	}
	return nil
}

func createStrategy(cmd *cobra.Command, args []string) error {
	weights, err := parseWeights(strategyWeights)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := strategy.NewService(a.store, a.log).Create(cmd.Context(), strategy.Input{
		Name:    strategyName,
		URL:     strategyURL,
		Weights: weights,
		OwnerID: strategyOwner,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ Created strategy %s (%s)\n", st.Name, st.ID)
	return nil
}

func importStrategies(cmd *cobra.Command, args []string) error {
	defs, err := strategy.LoadFile(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := strategy.NewService(a.store, a.log).Import(cmd.Context(), defs)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Imported %s: %d created, %d updated\n", args[0], result.Created, result.Updated)
	return nil
}
