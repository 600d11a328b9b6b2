package config_test

import (
	"fmt"

	"github.com/wonny/papertrade/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Screener: %s (page delay %s)\n", cfg.Screener.BaseURL, cfg.Screener.PageDelay)
	fmt.Printf("Engine: top %d, fee %.2f%%\n", cfg.Engine.TopN, cfg.Engine.FeeRate*100)
}
