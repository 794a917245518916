package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"regdash/internal/cache"
	"regdash/internal/cli"
	"regdash/internal/core"
	apphttp "regdash/internal/http"
	"regdash/internal/log"
	"regdash/internal/services"
)

func main() {
	cli.LoadEnvFile()

	boot, _ := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)

	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		boot.Error("Invalid logging configuration", log.FieldError, err)
		os.Exit(1)
	}

	loader, store, err := cli.LoadDataset(context.Background(), cfg, logger)
	if err != nil {
		var le *core.LoadError
		if errors.As(err, &le) {
			logger.Error("Dataset could not be loaded", log.FieldSource, le.Source, log.FieldError, le.Err)
		} else {
			logger.Error("Dataset source could not be created", log.FieldError, err)
		}
		os.Exit(1)
	}
	defer store.Close()

	dash := services.NewDashboardService(store, services.DashboardConfig{
		CacheSize:                cfg.CacheSize,
		CacheTTL:                 cfg.CacheTTL,
		DefaultManufacturerLimit: cfg.DefaultManufacturerLimit,
	}, logger.WithComponent(log.ComponentDashboard).Slog())

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	caches.Register(dash.Cache())

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:                    ":" + cfg.Port,
		QueryTimeout:            cfg.QueryTimeout,
		ExportRateLimit:         cfg.ExportRateLimit,
		HeadlineUndefinedAsZero: cfg.HeadlineUndefinedAsZero,
	}, dash, loader.Ready, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		}
		caches.Stop()
	})
	caches.StartCleanup(ctx, time.Minute)

	logger.Info("Starting regdash server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldRows, store.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
