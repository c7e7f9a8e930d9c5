package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"registru/internal/cli"
	"registru/internal/config"
	"registru/internal/log"
	"registru/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	b, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open backend", err)
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Error("Error during cleanup", "error", err)
		}
	}()
	if b.Publisher == nil {
		logger.Error("AMQP connection unavailable, export worker cannot consume notifications", "amqp_url_set", cfg.AMQPURL != "")
		return
	}

	sink, err := cli.OpenExportSink(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open export sink", "error", err, "sink", cfg.ExportSink)
		return
	}

	w := worker.NewExportWorker(sink, b.Repository)

	logger.Info("Starting export worker",
		"sink", cfg.ExportSink,
		"queue", cfg.AMQPQueue,
		"reconcile_interval", cfg.ReconcileInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Publisher.ConsumeExports(gctx, w.HandleExportMessage)
	})
	g.Go(func() error {
		return reconcileLoop(gctx, logger, w, cfg.ReconcileInterval)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Export worker stopped with error", "error", err)
		return
	}
	logger.Info("Export worker stopped gracefully")
}

// reconcileLoop runs one pass at startup and then one per interval.
func reconcileLoop(ctx context.Context, logger *log.Logger, w *worker.ExportWorker, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := w.Reconcile(ctx); err != nil {
			logger.ErrorContext(ctx, "Reconcile failed", "error", err)
		} else if n > 0 {
			logger.InfoContext(ctx, "Reconcile appended missing exports", "count", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
