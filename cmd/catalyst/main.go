package main

import (
	"os"

	"github.com/wonny/catalyst-alpha/cmd/catalyst/commands"
)

// main is the entry point for the catalyst CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/catalyst [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
