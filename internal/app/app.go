// Package app assembles the runtime pieces shared by the server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/gateway"
	"github.com/jafarshop/marketplace/internal/metrics"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/internal/repository/memory"
	"github.com/jafarshop/marketplace/internal/repository/postgres"
	"github.com/jafarshop/marketplace/internal/service"
)

const sandboxSecret = "sandbox-secret"

// App holds the wired dependencies. Close releases the database, if any.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Repos    *repository.Repositories
	Gateway  gateway.Gateway
	Metrics  *metrics.Metrics
	Services *service.Services

	db *sql.DB
}

// NewLogger builds a production or development logger at cfg.LogLevel
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// New opens storage per STORAGE_DRIVER and builds the services over it.
// Postgres schemas are migrated when migrate is true.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		a.Repos = memory.NewRepositories(memory.NewStore(logger))
	default:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.RunMigrations(ctx, db, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		a.db = db
		a.Repos = postgres.NewRepositories(db, logger)
	}

	a.Gateway = NewGateway(cfg, logger)
	tokens := auth.NewTokenIssuer(cfg.Session.JWTSecret, cfg.Session.TTL)
	a.Services = service.NewServices(cfg, a.Repos, a.Gateway, tokens, a.Metrics, logger)
	return a, nil
}

// NewGateway returns the REST client, or the in-process sandbox when no credentials are configured
func NewGateway(cfg *config.Config, logger *zap.Logger) gateway.Gateway {
	if cfg.Gateway.KeyID != "" && cfg.Gateway.KeySecret != "" {
		return gateway.NewClient(cfg.Gateway, logger)
	}
	secret := cfg.Gateway.KeySecret
	if secret == "" {
		secret = sandboxSecret
	}
	logger.Warn("Payment gateway credentials missing; using sandbox gateway")
	return gateway.NewSandbox(secret)
}

// DB exposes the postgres handle; nil for memory storage
func (a *App) DB() *sql.DB {
	return a.db
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
