package main

import (
	"os"

	"github.com/wonny/smart-portfolio/cmd/portfolio/commands"
)

// main is the entry point for the portfolio CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/portfolio [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
