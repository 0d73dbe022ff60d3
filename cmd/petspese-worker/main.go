// Command petspese-worker mirrors every committed upload from the data
// backend to MIRROR_BACKEND. It is driven by the submission events the
// server publishes and falls back to a periodic sync.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"petspese/internal/amqp"
	"petspese/internal/cli"
	applog "petspese/internal/log"
	"petspese/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.MirrorBackend == "" {
		logger.Error("MIRROR_BACKEND is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	primary, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	mirror, err := cli.OpenMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", applog.FieldError, err, applog.FieldBackend, cfg.MirrorBackend)
		cli.Close(logger, primary)
		os.Exit(1)
	}

	m := worker.NewMirror(primary.Backend, mirror.Backend, logger.With(applog.FieldOperation, applog.OpSync).Logger)

	logger.Info("Starting petspese worker",
		applog.FieldOperation, applog.OpStartup,
		"primary", primary.Type.String(),
		"mirror", mirror.Type.String(),
		"sync_interval", cfg.SyncInterval,
		"events", cfg.AMQPURL != "")

	if err := m.StartupSync(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to connect to AMQP, relying on periodic sync", applog.FieldError, err)
			consumer = nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.RunPeriodic(gctx, cfg.SyncInterval)
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeSubmissions(gctx, m.HandleSubmission)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		return cli.GracefulShutdown(gctx, logger, 10*time.Second, func(context.Context) error {
			cancel()
			return nil
		})
	})

	err = g.Wait()
	if consumer != nil {
		consumer.Close()
	}
	cli.Close(logger, mirror)
	cli.Close(logger, primary)
	if err != nil {
		logger.Error("Worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
