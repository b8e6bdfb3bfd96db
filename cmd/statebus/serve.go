package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/statebus/statebus/pkg/inspect"
	"github.com/statebus/statebus/pkg/middleware"
	"github.com/statebus/statebus/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		debug   bool
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve <seed.json>",
		Short: "Serve the store inspector over a seeded store",
		Long: `Seed a store from a JSON file mapping namespaces to initial values,
then serve the read-only inspector.

The seed file is a JSON object; each top-level key becomes a
namespace:

  {
    "cart": {"items": []},
    "user": {"name": "ada"}
  }

Examples:
  statebus serve seed.json
  statebus serve seed.json --addr=127.0.0.1:7070 --debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0], addr, debug, metrics)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:7070", "Address to serve the inspector on")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Log a storage snapshot on every mutation")
	cmd.Flags().BoolVarP(&metrics, "metrics", "m", false, "Collect Prometheus metrics for store activity")

	return cmd
}

func runServe(seedPath, addr string, debug, metrics bool) error {
	seed, err := loadSeed(seedPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := []store.Option{store.WithLogger(logger)}
	if metrics {
		opts = append(opts, store.WithInstrumentation(middleware.Prometheus()))
	}

	engine := store.New(opts...)
	if err := engine.Init(seed, debug); err != nil {
		return fmt.Errorf("seeding store: %w", err)
	}
	logger.Info("store seeded", "namespaces", engine.Namespaces(), "seed", seedPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return inspect.New(engine, inspect.WithLogger(logger)).ListenAndServe(ctx, addr)
}

func loadSeed(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seed map[string]any
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return seed, nil
}
