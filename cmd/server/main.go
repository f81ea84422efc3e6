package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/mcoot/gameshelf/internal/api"
	"github.com/mcoot/gameshelf/internal/config"
	"github.com/mcoot/gameshelf/internal/factory"
	"github.com/mcoot/gameshelf/internal/logging"
	"github.com/mcoot/gameshelf/internal/seed"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (env: GAMESHELF_CONFIG)")
	envFile := flag.String("env-file", "", "dotenv file to load first (default .env)")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging, optionally teeing into a rotated file
	logger, closeLog, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		slog.Error("failed to set up logging", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		_ = closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	logger.Info("storage ready", slog.String("type", cfg.Storage.Type))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Seed {
		if _, err := seed.Catalog(ctx, app.Repos.Games, logger); err != nil {
			return err
		}
	}

	// Repair anything left stale by a crash between a write and its recompute
	if cfg.Aggregates.RecomputeOnStart {
		if _, err := app.Engine.RecomputeAll(ctx); err != nil {
			return err
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Registry:    app.Registry,
		Repos:       app.Repos,
		Engine:      app.Engine,
		Library:     app.Library,
		Reviews:     app.Reviews,
		Consistency: app.Consistency,
	})

	server := api.NewServer(router, api.ServerConfigFrom(cfg.Server), logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
