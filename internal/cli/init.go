// Package cli holds the start-up steps shared by every binary: .env
// loading, logging, configuration and backend construction.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bizdash/internal/backend"
	"bizdash/internal/config"
	applog "bizdash/internal/log"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// SetupLogger builds the process logger at the configured level and installs
// it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Component = component
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		logCfg.Format = f
	}
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", "error", err)
	}
	return logger
}

// LoadConfig loads and validates configuration from the environment.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend builds the backend selected by cfg.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return b, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
