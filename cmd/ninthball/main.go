package main

import (
	"os"

	"github.com/wonny/ninthball/cmd/ninthball/commands"
)

// main is the entry point for the ninthball CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ninthball [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
