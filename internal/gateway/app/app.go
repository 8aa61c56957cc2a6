package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nebula/internal/architect"
	"nebula/internal/gateway/config"
	"nebula/internal/gateway/handler"
	"nebula/internal/gateway/server"
	"nebula/internal/llm"
	"nebula/internal/pricing"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	server *server.Server
	stores *gatewayStores
	models *llm.Registry
}

// NewLogger returns a text logger for local runs and JSON elsewhere.
func NewLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts)).With("service", cfg.ProjectName, "version", cfg.Version)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := NewLogger(cfg)
	slog.SetDefault(log)

	models, err := llm.NewRegistryFromSettings(cfg.Providers, llm.WithRegistryLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}
	if configured := models.Configured(); len(configured) == 0 {
		log.Warn("no LLM provider configured; generation will return degraded results")
	} else {
		log.Info("LLM providers configured", "providers", configured)
	}

	stores, err := initStores(ctx, cfg, log)
	if err != nil {
		_ = models.Close()
		return nil, err
	}

	estimator := pricing.New(nil)
	arch := architect.New(architect.Options{
		Models:    models,
		Logger:    log,
		Estimator: estimator,
		Timeout:   operationTimeout(cfg.Providers.Timeout, len(models.Configured())),
	})
	h := handler.New(handler.Deps{
		Architect:   arch,
		Projects:    stores.projects,
		Exports:     stores.exports,
		Estimator:   estimator,
		Logger:      log,
		ProjectName: cfg.ProjectName,
		Version:     cfg.Version,
	})

	mux := server.NewMux(h, cfg.APIPrefix, cfg.CORSOrigins, log)
	return &App{
		cfg:    cfg,
		log:    log,
		server: server.New(cfg.Port, mux, log),
		stores: stores,
		models: models,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops the listener, then releases the store and provider clients.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	return errors.Join(err, a.stores.Close(), a.models.Close())
}

// operationTimeout bounds one architect operation. The failover chain may
// spend a full per-call timeout on every configured provider, plus one spare
// slot for rate-limit and quota waits. Zero disables the bound.
func operationTimeout(perCall time.Duration, providers int) time.Duration {
	if perCall <= 0 {
		return 0
	}
	return perCall * time.Duration(max(providers, 1)+1)
}
