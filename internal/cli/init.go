// Package cli holds the tracker command tree and the bootstrap helpers
// shared by cmd/tracker, cmd/tracker-worker and cmd/oauth-init.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tracker/internal/app"
	"tracker/internal/backend"
	"tracker/internal/config"
	"tracker/internal/log"
	"tracker/internal/seed"
)

// SetupLogger builds the process logger at the given level and makes it the
// slog default. An unknown level falls back to info with a warning.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: out})
	if err != nil {
		logger.Warn("Falling back to info log level", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and checks it with validate.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenApp builds the configured backend and wires it into a new App.
// The App's Close releases the backend.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app.App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	var ds *seed.Dataset
	if cfg.SeedExampleData {
		if ds, err = seed.Default(loc); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("load example data: %w", err)
		}
	}

	a, err := app.New(app.Options{
		Store:      res.Store,
		Notifier:   res.Notifier,
		Seed:       ds,
		Location:   loc,
		Logger:     logger,
		LoginDelay: cfg.AuthLoginDelay,
		Cleanup:    res.Close,
	})
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	return a, nil
}

// EnvAppOpener reads .env and the environment, then opens the App.
// verbose forces debug logging.
func EnvAppOpener(ctx context.Context, verbose bool, stderr io.Writer) (*app.App, error) {
	LoadEnvFile()
	cfg := config.Load()
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := SetupLogger(level, stderr)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return OpenApp(ctx, cfg, logger.WithComponent(log.ComponentCLI))
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
