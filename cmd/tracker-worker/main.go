package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/log"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheSweepEvery = time.Minute
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout).WithComponent(log.ComponentWorker)
	logger.Info("Starting tracker-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	// The worker only reads the shared store: no change messages, no seeding.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	storeCfg.SeedExampleData = false

	startCtx, cancelStart := context.WithTimeout(context.Background(), shutdownTimeout)
	a, err := cli.OpenApp(startCtx, &storeCfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("Failed to open stores", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	svc, err := gsheet.NewService(context.Background(), gsheet.Credentials{
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets service", log.FieldError, err)
		_ = a.Close()
		os.Exit(1)
	}
	sheetsClient, err := gsheet.New(svc, cfg.GoogleSpreadsheetID, gsheet.Options{Logger: logger})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		_ = a.Close()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	caches := cache.NewManager(logger)
	caches.Register(sheetsClient.TabCache())
	caches.StartCleanup(cacheSweepEvery)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		caches.Stop()
		_ = a.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func() {
		caches.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close stores", log.FieldError, err)
		}
	})

	mirror := worker.NewMirrorWorker(a, sheetsClient, logger)

	// Catch up on changes made while the worker was down.
	logger.Info("Performing startup sync", log.FieldOperation, log.OpSync)
	if err := mirror.SyncAll(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	go func() {
		if err := amqpClient.Consume(ctx, mirror.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
