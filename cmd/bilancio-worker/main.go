package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/export/sheets"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting bilancio-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	creds, err := sheets.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to read Google credentials", log.FieldError, err)
		os.Exit(1)
	}
	sheetsClient, err := sheets.New(ctx, cfg.GoogleSpreadsheetID, creds, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(store, sheetsClient, logger)

	consumerFailed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := amqpClient.ConsumeStateChanges(ctx, exportWorker.HandleStateChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			close(consumerFailed)
		}
	}()
	go func() {
		defer wg.Done()
		exportWorker.Run(ctx, cfg.ExportInterval)
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		cancel()
		wg.Wait()

		exports, revision, _ := exportWorker.Status()
		logger.Info("Worker stopped", "exports", exports, log.FieldRevision, revision)

		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := closeStore(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	select {
	case <-consumerFailed:
		cancel()
		wg.Wait()
		_ = amqpClient.Close()
		_ = closeStore()
		os.Exit(1)
	case <-shutdownCtx.Done():
	}
	cli.WaitForShutdown(shutdownCtx, done)
}
