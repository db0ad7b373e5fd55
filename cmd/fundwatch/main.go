package main

import (
	"os"

	"github.com/wonny/fundwatch/cmd/fundwatch/commands"
)

// main is the entry point for the fundwatch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fundwatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
