package main

import (
	"context"
	"errors"
	"os"

	"github.com/robfig/cron/v3"

	"carteira/internal/amqp"
	"carteira/internal/cli"
	"carteira/internal/config"
	"carteira/internal/log"
	"carteira/internal/worker"
)

// categorySyncSchedule schedules the spreadsheet category sync.
const categorySyncSchedule = "@daily"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error {
		if err := c.Validate(); err != nil {
			return err
		}
		return c.ValidateWorker()
	})

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting carteira-worker")

	store := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	sheets, err := cli.NewSheets(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(sheets, sheets, store.Backend, logger)

	syncCategories := func() {
		added, err := syncWorker.SyncCategories(ctx)
		if err != nil {
			logger.LogError(ctx, "Category sync failed", err, log.OpSync)
			return
		}
		logger.Info("Category sync complete", "added", added)
	}
	syncCategories()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(categorySyncSchedule, syncCategories); err != nil {
		logger.Error("Failed to schedule category sync", log.FieldError, err, "schedule", categorySyncSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	err = client.ConsumeTransactions(ctx, syncWorker.HandleTransaction)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("carteira-worker stopped gracefully")
}
