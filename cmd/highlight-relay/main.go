// Package main provides the entry point for the highlight relay server.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/booklight/highlight-relay/internal/config"
	"github.com/booklight/highlight-relay/internal/discord"
	"github.com/booklight/highlight-relay/internal/metrics"
	"github.com/booklight/highlight-relay/internal/registry"
	"github.com/booklight/highlight-relay/internal/server"
	"github.com/booklight/highlight-relay/internal/webhook"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "highlight-relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	store, err := registry.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer func() {
		//nolint:errcheck
		store.Close()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if err := metrics.Init(reg, version); err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	svc := registry.NewService(store,
		registry.WithLogger(logger),
		registry.WithMaxAge(time.Duration(cfg.TokenMaxAgeDays)*24*time.Hour),
		registry.WithRequireExistingOnRefresh(cfg.RefreshRequireExisting),
	)

	var clientOpts []discord.Option
	if cfg.DiscordAPIURL != "" {
		clientOpts = append(clientOpts, discord.WithBaseURL(cfg.DiscordAPIURL))
	}
	client := discord.NewClient(cfg.BotToken, clientOpts...)

	var relay *webhook.Relay
	if cfg.WebhookConfigured() {
		relay = webhook.NewRelay(cfg.WebhookURL, cfg.RoomKey, cfg.WebhookAllowedPrefixes)
	}

	handler := server.NewHandler(svc, client, relay, logger)
	router := server.NewRouter(handler)

	go serveOps(cfg.MetricsListenAddr, reg, store, logger)

	logger.Info("highlight relay starting", "version", version, "addr", cfg.ListenAddr,
		"webhook_mode", relay != nil)

	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// serveOps runs the operational listener: metrics plus health and readiness.
func serveOps(addr string, reg prometheus.Gatherer, store *registry.SQLiteStore, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck
			fmt.Fprint(w, `{"status":"unavailable"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("ops listener failed", "error", err)
	}
}

// newLogger builds a JSON slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
