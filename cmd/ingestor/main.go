package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apatel/nifty-data/internal/api"
	"github.com/apatel/nifty-data/internal/config"
	"github.com/apatel/nifty-data/internal/database"
	"github.com/apatel/nifty-data/internal/sink"
	"github.com/apatel/nifty-data/internal/supervisor"
	"github.com/apatel/nifty-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.example.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"underlying", cfg.Feed.Underlying,
		"api_url", cfg.API.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Build the enabled sinks
	tickSink, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build sinks", "error", err)
		os.Exit(1)
	}
	defer closeSinks()

	// Create API client
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.AccessToken,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	sup := supervisor.New(apiClient, tickSink, cfg.Feed, cfg.API, logger)

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(sup),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("ingestor running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Run the feed supervisor until shutdown
	if err := sup.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("supervisor stopped", "error", err)
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("ingestor stopped")
}

// buildSinks assembles the enabled sinks into a single fan-out sink.
func buildSinks(ctx context.Context, cfg *config.IngestorConfig, logger *slog.Logger) (sink.Sink, func(), error) {
	var sinks []sink.Sink

	if cfg.Sink.Postgres.Enabled {
		logger.Info("connecting to postgres",
			"host", cfg.Sink.Postgres.Host,
			"port", cfg.Sink.Postgres.Port,
			"database", cfg.Sink.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Sink.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting postgres: %w", err)
		}
		pg, err := sink.NewPostgres(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("preparing postgres sink: %w", err)
		}
		sinks = append(sinks, pg)
	}

	if cfg.Sink.SQLite.Enabled {
		logger.Info("opening sqlite sink", "path", cfg.Sink.SQLite.Path)
		sq, err := sink.NewSQLite(cfg.Sink.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite sink: %w", err)
		}
		sinks = append(sinks, sq)
	}

	if cfg.Sink.Redis.Enabled {
		logger.Info("connecting to redis", "addr", cfg.Sink.Redis.Addr)
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Sink.Redis.Addr,
			Password: cfg.Sink.Redis.Password,
			DB:       cfg.Sink.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connecting redis: %w", err)
		}
		sinks = append(sinks, sink.NewRedis(rdb, cfg.Sink.Redis.KeyPrefix, cfg.Sink.Redis.TTL))
	}

	multi := sink.NewMulti(sinks...)
	return multi, func() {
		if err := multi.Close(); err != nil {
			logger.Error("closing sinks", "error", err)
		}
	}, nil
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(sup *supervisor.Supervisor) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		snap := sup.Snapshot()

		w.Header().Set("Content-Type", "application/json")
		if snap.Status == "restarting" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(snap)
	})

	return mux
}
