package main

import (
	"context"
	"os"
	"time"

	"bizdash/internal/cli"
	applog "bizdash/internal/log"
	"bizdash/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting reminder-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	b, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer b.Close()

	// without a broker there is nobody to deliver the reminder to, and
	// marking it sent would lose it
	if b.AMQP == nil {
		logger.Error("AMQP client unavailable, reminders cannot be published")
		os.Exit(1)
	}

	config := services.ReminderProcessorConfig{
		PollInterval: cfg.ReminderInterval,
		Lookahead:    cfg.ReminderLookahead,
	}
	processor := services.NewReminderProcessor(b.Store, b.AMQP, cli.WorkerMetrics(ctx, cfg, logger), config, nil)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start reminder processor", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Error("Reminder processor stop failed", "error", err)
	}
	logger.Info("Reminder worker stopped")
}
