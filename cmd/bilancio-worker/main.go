package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	cfg, base := cli.Bootstrap()
	logger := base.WithComponent(log.ComponentWorker)
	logger.Info("Starting bilancio-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory storage is private to this process, exports will be empty")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// Every event must reload fresh data, and the worker never publishes.
	backendCfg.CacheSize = 0
	backendCfg.AMQPURL = ""

	res, err := backend.NewFactory(base.Logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	writer, err := cli.NewSummaryWriter(context.Background(), cfg, base.WithComponent(log.ComponentSheets).Logger)
	if err != nil {
		logger.Error("Failed to initialize export writer", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := cli.GracefulShutdown(logger, 10*time.Second, nil)
	exporter := worker.NewExportWorker(res.Months, writer)

	// The current month is exported on startup to cover events missed while down.
	if err := exporter.ExportMonth(ctx, core.MonthOf(time.Now())); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	logger.Info("Consuming month.changed events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.RunConsumer(ctx, exporter.HandleMonthChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return
	}
	logger.Info("Worker stopped gracefully")
}
