package main

import (
	"context"
	"errors"
	"os"

	"bizdash/internal/amqp"
	"bizdash/internal/cli"
	applog "bizdash/internal/log"
	"bizdash/internal/services"
	"bizdash/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting bizdash-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err)
		os.Exit(1)
	}
	defer b.Close()
	if b.AMQP == nil {
		logger.Error("AMQP broker unreachable, nothing to consume", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	sink := cli.WorkerMetrics(ctx, cfg, logger)
	invoices := services.NewInvoiceService(b.Store, nil, sink, nil)
	renderer := worker.NewRenderWorker(invoices, b.Ledger, cfg.ExportDir, sink)

	logger.Info("Consuming queues",
		"render_queue", cfg.AMQPRenderQueue,
		"reminder_queue", cfg.AMQPReminderQueue,
		"export_dir", cfg.ExportDir,
		"ledger", b.Ledger != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.AMQP.ConsumeInvoiceRender(gctx, func(msg *amqp.InvoiceRenderMessage) error {
			return renderer.HandleRenderMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return b.AMQP.ConsumeJobReminders(gctx, func(msg *amqp.JobReminderMessage) error {
			return renderer.HandleReminderMessage(gctx, msg)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		b.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
