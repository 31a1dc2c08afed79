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

	"github.com/jackc/pgx/v5/pgxpool"

	"tokenradar/internal/api"
	"tokenradar/internal/config"
	"tokenradar/internal/connection"
	"tokenradar/internal/database"
	"tokenradar/internal/dedup"
	"tokenradar/internal/filter"
	"tokenradar/internal/notify"
	"tokenradar/internal/observability"
	"tokenradar/internal/pipeline"
	"tokenradar/internal/version"
	"tokenradar/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/tokenradar.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting tokenradar",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
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

	// Runtime-editable filter and signal settings
	store, err := config.NewStore(cfg.Filters, cfg.Signals)
	if err != nil {
		logger.Error("invalid filter config", "error", err)
		os.Exit(1)
	}

	// Pull feed client
	scanClient := api.NewClient(
		cfg.Scan.URL,
		cfg.Scan.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Scan.Timeout),
	)

	// Telegram delivery
	notifier := notify.NewTelegram(notify.Config{
		BotToken:   cfg.Notifier.BotToken,
		ChatID:     cfg.Notifier.ChatID,
		APIURL:     cfg.Notifier.APIURL,
		RatePerSec: cfg.Notifier.RatePerSec,
		Burst:      cfg.Notifier.Burst,
	}, logger)
	reporter := notify.NewReporter(notifier, logger)

	// Push feed
	feed := connection.NewFeed(connection.FeedConfig{
		URL:                  cfg.Stream.URL,
		APIKey:               cfg.Stream.APIKey,
		Channel:              cfg.Stream.Channel,
		ReconnectInterval:    cfg.Stream.ReconnectInterval,
		ReconnectMaxInterval: cfg.Stream.ReconnectMaxInterval,
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		SubscribeTimeout:     cfg.Stream.SubscribeTimeout,
		PingInterval:         cfg.Stream.PingInterval,
		PingGrace:            cfg.Stream.PingGrace,
		BufferSize:           cfg.Stream.BufferSize,
	}, reporter, logger)

	// Optional alert archive
	var (
		pool        *pgxpool.Pool
		alertWriter *writer.AlertWriter
		archive     pipeline.Archiver
	)
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		alertWriter = writer.New(writer.Config{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
		}, pool, logger)
		if err := alertWriter.Start(ctx); err != nil {
			logger.Error("failed to start alert writer", "error", err)
			os.Exit(1)
		}
		archive = alertWriter
		logger.Info("alert archive connected")
	}

	// Pipeline
	coord := pipeline.New(pipeline.Config{
		IntakeBufferSize: cfg.Pipeline.IntakeBufferSize,
		PollInterval:     cfg.Scan.PollInterval,
		PollTimeout:      cfg.Scan.Timeout,
		SignalRetention:  cfg.Tracker.Retention,
	}, pipeline.Deps{
		Store:    store,
		Feed:     feed,
		Scan:     scanClient,
		Filter:   filter.New(logger),
		Dedup:    dedup.New(0, logger), // primary alerts never repeat within a run
		Notifier: notifier,
		Reporter: reporter,
		Archive:  archive,
		Logger:   logger,
	})
	if err := coord.Start(ctx); err != nil {
		logger.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	// Health and metrics server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(cfg.Metrics.Path, pool, feed, coord),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("tokenradar running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := coord.Stop(shutdownCtx); err != nil {
		logger.Warn("pipeline shutdown incomplete", "error", err)
	}
	if alertWriter != nil {
		if err := alertWriter.Stop(shutdownCtx); err != nil {
			logger.Warn("alert writer shutdown incomplete", "error", err)
		}
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("tokenradar stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(metricsPath string, pool *pgxpool.Pool, feed connection.Feed, coord *pipeline.Coordinator) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, observability.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check archive database when configured
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["database"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["database"] = "connected"
			}
		}

		// Check push feed state
		state := feed.State()
		health.Components["stream"] = state.String()
		if state != connection.StateStreaming && state != connection.StateSubscribed {
			health.Status = "degraded"
		}

		health.Components["tokens_tracked"] = coord.Tracked()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
