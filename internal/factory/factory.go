package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/gameshelf/internal/aggregate"
	"github.com/mcoot/gameshelf/internal/config"
	"github.com/mcoot/gameshelf/internal/dependencies/clock"
	"github.com/mcoot/gameshelf/internal/dependencies/identity"
	"github.com/mcoot/gameshelf/internal/repository"
	"github.com/mcoot/gameshelf/internal/services/account"
	"github.com/mcoot/gameshelf/internal/services/consistency"
	"github.com/mcoot/gameshelf/internal/services/library"
	"github.com/mcoot/gameshelf/internal/services/review"
	"github.com/mcoot/gameshelf/internal/storage"
	"github.com/mcoot/gameshelf/internal/storage/file"
	"github.com/mcoot/gameshelf/internal/storage/memory"
	redisstorage "github.com/mcoot/gameshelf/internal/storage/redis"
	sqlstorage "github.com/mcoot/gameshelf/internal/storage/sql"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeFile   = config.StorageFile
	StorageTypeRedis  = config.StorageRedis
	StorageTypeSQL    = config.StorageSQL
)

// App contains all wired application components
type App struct {
	// Storage
	Backend storage.Backend
	Repos   *repository.Repositories

	// External dependencies
	Clock clock.Clock
	IDs   identity.Generator

	// Metrics registry served on /metrics
	Registry *prometheus.Registry

	// Aggregates and services
	Engine      *aggregate.Engine
	Library     *library.Service
	Reviews     *review.Service
	Accounts    *account.Service
	Consistency *consistency.Service

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the backend ("memory", "file", "redis" or "sql")
	// If empty, defaults to "memory"
	StorageType string
	// DataDir is the directory of the file backend (required if StorageType is "file")
	DataDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (required if StorageType is "sql")
	SQLConfig *sqlstorage.Config
	// IDScheme selects the identity generator; empty means random
	IDScheme identity.Scheme
	// Parallelism bounds concurrent recomputes in a full pass; zero means the default
	Parallelism int
}

// ConfigFrom maps loaded application settings onto a factory Config
func ConfigFrom(c *config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.Config{
		URL:          c.Storage.Redis.URL,
		PoolSize:     c.Storage.Redis.PoolSize,
		MinIdleConns: c.Storage.Redis.MinIdleConns,
		DialTimeout:  c.Storage.Redis.DialTimeout,
		KeyPrefix:    c.Storage.Redis.KeyPrefix,
	}
	sqlCfg := sqlstorage.Config{
		Driver:          c.Storage.SQL.Driver,
		DSN:             c.Storage.SQL.DSN,
		MaxOpenConns:    c.Storage.SQL.MaxOpenConns,
		MaxIdleConns:    c.Storage.SQL.MaxIdleConns,
		ConnMaxLifetime: c.Storage.SQL.ConnMaxLifetime,
		LogLevel:        c.Storage.SQL.LogLevel,
	}
	return Config{
		Logger:      logger,
		StorageType: c.Storage.Type,
		DataDir:     c.Storage.DataDir,
		RedisConfig: &redisCfg,
		SQLConfig:   &sqlCfg,
		IDScheme:    identity.Scheme(c.IDScheme),
		Parallelism: c.Aggregates.Parallelism,
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	ids, err := identity.New(cfg.IDScheme)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := newWithDependencies(backend, clock.New(), ids, registry, logger)
	if cfg.Parallelism > 0 {
		app.Engine.SetParallelism(cfg.Parallelism)
	}
	return app, nil
}

func newBackend(cfg Config) (storage.Backend, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeFile:
		if cfg.DataDir == "" {
			return nil, errors.New("DataDir required when StorageType is file")
		}
		return file.New(filepath.Clean(cfg.DataDir))
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQL:
		if cfg.SQLConfig == nil {
			return nil, errors.New("SQLConfig required when StorageType is sql")
		}
		return sqlstorage.New(*cfg.SQLConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, file, redis or sql", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	backend storage.Backend,
	clk clock.Clock,
	ids identity.Generator,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *App {
	repos := repository.New(backend, ids, clk, logger, storage.NewMetrics(registry))
	engine := aggregate.New(repos, logger, aggregate.NewMetrics(registry))

	return &App{
		Backend:     backend,
		Repos:       repos,
		Clock:       clk,
		IDs:         ids,
		Registry:    registry,
		Engine:      engine,
		Library:     library.New(repos, engine, clk, logger),
		Reviews:     review.New(repos, engine, clk, logger),
		Accounts:    account.New(repos, logger),
		Consistency: consistency.New(repos, logger),
		Logger:      logger,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Backend.Close()
}
