package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/telegram"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentTelegram)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := cfg.ValidateBot(); err != nil {
		logger.Error("Bot configuration invalid", applog.FieldError, err)
		os.Exit(1)
	}
	users, _ := cfg.TelegramUsers()

	ctx := context.Background()
	st := cli.InitBackend(ctx, logger, cfg)

	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without the mirror", applog.FieldError, err)
		} else {
			amqpClient = c
			events = c
		}
	}

	finance := cli.InitFinanceService(ctx, logger, cfg, st, events)

	bot, err := telegram.New(cfg.TelegramBotToken, finance, users, logger)
	if err != nil {
		logger.Error("Failed to start Telegram bot", applog.FieldError, err)
		os.Exit(1)
	}

	runCtx, stop := context.WithCancel(ctx)
	shutdownCtx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := finance.Close(); err != nil {
			logger.Error("Failed to close store", applog.FieldError, err)
		}
	})

	logger.Info("Starting fintrack bot", "allowed_users", len(users))
	if err := bot.Run(runCtx); err != nil {
		logger.Error("Bot stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
}
