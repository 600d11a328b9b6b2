package main

import (
	"os"

	"github.com/wonny/papertrade/cmd/papertrade/commands"
)

// main is the entry point for the papertrade CLI
// ⭐ unified CLI entry point: go run ./cmd/papertrade [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
