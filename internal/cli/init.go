// Package cli provides the initialization shared by the petspese commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"petspese/internal/backend"
	"petspese/internal/config"
	applog "petspese/internal/log"
)

// SetupLogger builds the process logger for LOG_LEVEL and makes it the slog
// default. An unknown level falls back to info.
func SetupLogger(level, component string) *applog.Logger {
	lvl, err := config.ParseLevel(level)
	logger := applog.New(applog.Config{Level: lvl, Component: component, Output: os.Stderr})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend creates the storage backend selected by cfg. Callers must run
// the result's Cleanup when it is set.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	storageLogger := logger.WithComponent(applog.ComponentStorage).With(applog.FieldBackend, bcfg.Type.String())
	res, err := backend.NewFactory(storageLogger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// OpenMirror creates the mirror backend named by MIRROR_BACKEND.
func OpenMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	storageLogger := logger.WithComponent(applog.ComponentStorage).With(applog.FieldBackend, bcfg.Type.String(), "role", "mirror")
	res, err := backend.NewFactory(storageLogger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s mirror: %w", bcfg.Type, err)
	}
	return res, nil
}

// Close runs the backend cleanup, logging any failure.
func Close(logger *applog.Logger, res *backend.BackendResult) {
	if res == nil || res.Cleanup == nil {
		return
	}
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", applog.FieldError, err)
	}
}

// GracefulShutdown blocks until SIGINT, SIGTERM or ctx is done, then calls
// shutdown with a context bounded by timeout.
func GracefulShutdown(ctx context.Context, logger *applog.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		}
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
