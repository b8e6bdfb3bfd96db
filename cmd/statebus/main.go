package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statebus",
		Short: "Namespaced observable state store tooling",
		Long: `statebus is the companion CLI for the statebus state store.

It can serve a debugging inspector over a seeded store and run
fan-out benchmarks:

  • serve: seed a store from a JSON file and expose the inspector
  • bench: measure mutation and notification throughput`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
