package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tickerhub/relay/internal/auth"
	"github.com/tickerhub/relay/internal/config"
	"github.com/tickerhub/relay/internal/dispatch"
	"github.com/tickerhub/relay/internal/gateway"
	"github.com/tickerhub/relay/internal/marketdata"
	"github.com/tickerhub/relay/internal/reaper"
	"github.com/tickerhub/relay/internal/scheduler"
	"github.com/tickerhub/relay/internal/server"
	"github.com/tickerhub/relay/internal/session"
	"github.com/tickerhub/relay/internal/store"
	"github.com/tickerhub/relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
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
		"addr", cfg.Server.Addr,
		"feed_url", cfg.Feed.BaseURL,
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

	// Connect to the history store
	logger.Info("connecting to history store",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	history, err := store.Connect(ctx, cfg.Database.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to history store", "error", err)
		os.Exit(1)
	}
	defer history.Close()

	logger.Info("history store connected")

	// Create feed client
	feed := marketdata.NewClient(
		cfg.Feed.BaseURL,
		cfg.Feed.APIKey,
		marketdata.WithLogger(logger),
		marketdata.WithTimeout(cfg.Feed.Timeout),
		marketdata.WithRetries(cfg.Feed.MaxRetries, time.Second),
		marketdata.WithCacheTTL(cfg.Feed.CacheTTL),
	)

	// Core relay components
	registry := session.NewRegistry(logger)
	gw := gateway.New(registry, logger)

	sched := scheduler.New(scheduler.Config{
		Interval:     cfg.Relay.StreamInterval,
		FetchTimeout: cfg.Relay.FetchTimeout,
	}, registry, feed, gw, logger)

	dispatcher := dispatch.New(dispatch.Config{
		RequestTimeout: cfg.Relay.FetchTimeout,
	}, registry, feed, history, gw, logger)

	verifier := auth.NewTokenVerifier(cfg.Auth.TokenSecret, history, logger)

	srv := server.New(
		cfg.Server,
		registry,
		gw,
		sched,
		dispatcher,
		verifier,
		history,
		cfg.Relay.DefaultSymbols,
		logger,
	)

	reap := reaper.New(reaper.Config{
		Interval: cfg.Relay.ReapInterval,
		Timeout:  cfg.Relay.LivenessTimeout,
	}, registry, srv.Drop, logger)

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	if err := reap.Start(ctx); err != nil {
		logger.Error("failed to start reaper", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	logger.Info("relay running",
		"instance_id", cfg.Instance.ID,
		"stream_interval", cfg.Relay.StreamInterval,
		"liveness_timeout", cfg.Relay.LivenessTimeout,
		"default_symbols", len(cfg.Relay.DefaultSymbols),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	srv.Stop(shutdownCtx)
	reap.Stop(shutdownCtx)
	sched.Stop(shutdownCtx)

	logger.Info("relay stopped")
}
