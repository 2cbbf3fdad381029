// Package main is the entry point for the csvflow CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/csvflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
