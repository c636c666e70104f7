// feedprobe subscribes to the option-chain feed and streams decoded
// ticks to the console, bypassing the durable sinks.
// Usage: go run ./cmd/feedprobe --config configs/ingestor.local.yaml
//
// Required environment variable:
//
//	UPSTOX_ACCESS_TOKEN - daily access token for the vendor API
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apatel/nifty-data/internal/api"
	"github.com/apatel/nifty-data/internal/config"
	"github.com/apatel/nifty-data/internal/model"
	"github.com/apatel/nifty-data/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full tick JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.API.AccessToken == "" {
		logger.Error("access token required")
		logger.Info("Set environment variable UPSTOX_ACCESS_TOKEN")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.AccessToken,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
	)

	sup := supervisor.New(apiClient, &consoleSink{verbose: *verbose}, cfg.Feed, cfg.API, logger)

	logger.Info("streaming started - press Ctrl+C to stop")

	if err := sup.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("supervisor stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// consoleSink prints every tick instead of persisting it.
type consoleSink struct {
	verbose bool
}

func (s *consoleSink) Write(ctx context.Context, ticks []model.Tick) error {
	for _, tk := range ticks {
		if s.verbose {
			data, _ := json.MarshalIndent(tk, "", "  ")
			fmt.Printf("[TICK] %s\n", data)
			continue
		}
		fmt.Printf("[TICK] instrument=%s ltp=%.2f spot=%.2f at=%s\n",
			tk.InstrumentKey, tk.LastTradedPrice, tk.SpotPrice,
			tk.ObservedAt.Format(time.RFC3339Nano))
	}
	return nil
}

func (s *consoleSink) Close() error { return nil }
