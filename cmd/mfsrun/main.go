package main

import (
	"fmt"
	"os"

	"monofs/internal/cli/runner"
)

// Set by goreleaser ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	runner.SetVersion(version, commit, date)
	if err := runner.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
