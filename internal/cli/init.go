// Package cli provides common CLI initialization utilities shared by
// cmd/regdash and cmd/regdash-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"regdash/internal/backend"
	"regdash/internal/config"
	"regdash/internal/log"
	"regdash/internal/storage"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. A nil cfg gives the bootstrap logger used before the
// configuration is known.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, error) {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		level, err := cfg.SlogLevel()
		if err != nil {
			return nil, err
		}
		format, err := log.ParseFormat(cfg.LogFormat)
		if err != nil {
			return nil, err
		}
		lc.Level = level
		lc.Format = format
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadDataset builds the configured source and loads it into an in-memory
// store. The returned loader reports readiness; the error is a
// *core.LoadError when the source itself failed.
func LoadDataset(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Loader, *storage.Store, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("backend config: %w", err)
	}
	src, err := backend.NewFactory(logger.WithComponent(log.ComponentSource).Slog()).CreateSource(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s source: %w", bc.Type, err)
	}

	loader := storage.NewLoader(src, logger.WithComponent(log.ComponentStorage).Slog())
	store, err := loader.Initialize(ctx)
	if err != nil {
		return loader, nil, err
	}
	return loader, store, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
