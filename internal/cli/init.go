// Package cli holds the start-up steps shared by the fintrack binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/ai"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// SetupLogger installs a text logger at the given LOG_LEVEL as the default
// and returns it.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Component: applog.ComponentApp,
		Handler: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: applog.ParseLevel(level),
		}),
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the store selected by DATA_BACKEND or exits.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) store.Store {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	s, err := backend.Open(ctx, backendCfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return s
}

// InitFinanceService wires the AI components for AI_PROVIDER into a
// FinanceService. events may be nil.
func InitFinanceService(ctx context.Context, logger *applog.Logger, cfg *config.Config, st store.Store, events services.EventPublisher) *services.FinanceService {
	completer, err := ai.NewCompleter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize completion service", applog.FieldError, err, applog.FieldAIProvider, cfg.AIProvider)
		os.Exit(1)
	}

	opts := services.Options{Store: st}
	if events != nil {
		opts.Events = events
	}
	if completer != nil {
		opts.Classifier = ai.NewClassifier(completer)
		opts.Parser = ai.NewParser(completer)
		opts.Insights = ai.NewInsights(completer)
		opts.Recommender = ai.NewRecommender(completer)
		logger.Info("AI features enabled", applog.FieldAIProvider, cfg.AIProvider)
	} else {
		logger.Warn("AI features disabled", applog.FieldAIProvider, cfg.AIProvider)
	}
	return services.NewFinanceService(opts)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM after
// cleanup has run, and a channel closed once shutdown is finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and shutdown is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
