package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"petspese/internal/cli"
	apphttp "petspese/internal/http"
	applog "petspese/internal/log"
	"petspese/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cli.Close(logger, res)

	svc := services.NewPetService(res.Backend, res.Backend, res.Photos, res.Publisher)
	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		CacheTTL:         cfg.CacheTTL,
		UploadsPerMinute: cfg.UploadsPerMinute,
		Ready:            res.Ready,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		cli.Close(logger, res)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting petspese server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, res.Type.String(),
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cli.GracefulShutdown(gctx, logger, 30*time.Second, srv.Shutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		cli.Close(logger, res)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
