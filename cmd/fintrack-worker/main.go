package main

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting fintrack-worker")
	ctx := context.Background()

	sheetsClient, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		RecordSheet:     cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeaders(ctx); err != nil {
		// Rows still land without headers.
		logger.Warn("Failed to write sheet headers", applog.FieldError, err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	runner := worker.NewRunner(amqpClient, worker.NewMirrorWorker(sheetsClient).Handle)
	if err := runner.Start(ctx); err != nil {
		logger.Error("Failed to start mirror worker", applog.FieldError, err)
		os.Exit(1)
	}

	var stopping atomic.Bool
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopping.Store(true)
		if err := runner.Stop(ctx); err != nil {
			logger.Error("Mirror worker did not stop cleanly", applog.FieldError, err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", applog.FieldError, err)
		}
	})

	select {
	case <-shutdownCtx.Done():
	case <-runner.Done():
		if stopping.Load() {
			break
		}
		logger.Error("Mirror worker exited", applog.FieldError, runner.Err())
		_ = amqpClient.Close()
		os.Exit(1)
	}
	cli.WaitForShutdown(shutdownCtx, done)
}
