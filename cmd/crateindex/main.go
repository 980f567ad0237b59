// Package main provides the entry point for the crateindex CLI.
package main

import (
	"os"

	"github.com/crateindex/crateindex/cmd/crateindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
