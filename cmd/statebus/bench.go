package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/statebus/statebus/pkg/store"
)

func benchCmd() *cobra.Command {
	var (
		observers int
		mutations int
		depth     int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure mutation and fan-out throughput",
		Long: `Run a synthetic store workload and report throughput.

The workload initializes one namespace, registers the requested
number of observers, then issues merge updates and deep sets in
alternation.

Examples:
  statebus bench
  statebus bench --observers=100 --mutations=100000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(observers, mutations, depth)
		},
	}

	cmd.Flags().IntVarP(&observers, "observers", "o", 10, "Observers registered on the namespace")
	cmd.Flags().IntVarP(&mutations, "mutations", "n", 10000, "Mutations to issue")
	cmd.Flags().IntVarP(&depth, "depth", "D", 3, "Dot-path depth for Set mutations")

	return cmd
}

func runBench(observers, mutations, depth int) error {
	engine := store.New()
	if err := engine.Init(map[string]any{"bench": map[string]any{}}, false); err != nil {
		return err
	}

	var delivered int
	for i := 0; i < observers; i++ {
		if _, err := engine.Subscribe("bench", func(any) { delivered++ }); err != nil {
			return err
		}
	}

	path := "bench"
	for i := 0; i < depth; i++ {
		path += ".n"
	}

	start := time.Now()
	for i := 0; i < mutations; i++ {
		var err error
		if i%2 == 0 {
			err = engine.Update("bench", map[string]any{"i": i}, true)
		} else {
			err = engine.Set(path, i)
		}
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	perMutation := elapsed / time.Duration(mutations)
	fmt.Printf("observers:      %d\n", observers)
	fmt.Printf("mutations:      %d\n", mutations)
	fmt.Printf("deliveries:     %d\n", delivered)
	fmt.Printf("elapsed:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("per mutation:   %s\n", perMutation)
	fmt.Printf("mutations/sec:  %.0f\n", float64(mutations)/elapsed.Seconds())
	return nil
}
