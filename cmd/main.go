package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"skin-bot/config"
	telegram "skin-bot/internal/api"
	"skin-bot/internal/container"
)

func main() {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Error("не удалось загрузить конфигурацию", "error", err)
		os.Exit(1)
	}

	if cfg.TelegramToken == "" {
		log.Error("TELEGRAM_TOKEN обязателен")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.Error("не удалось собрать сервисы", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.AnalysisService, log)
	if err != nil {
		log.Error("не удалось создать бота", "error", err)
		os.Exit(1)
	}

	log.Info("бот запущен")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("бот остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
	log.Info("бот остановлен")
}
