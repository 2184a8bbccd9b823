package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/eug3n3js/ShiftBot/internal/bot"
	"github.com/eug3n3js/ShiftBot/internal/browser"
	"github.com/eug3n3js/ShiftBot/internal/config"
	"github.com/eug3n3js/ShiftBot/internal/engine"
	"github.com/eug3n3js/ShiftBot/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	factory := browser.NewGridFactory(browser.GridConfig{
		SeleniumURL: cfg.SeleniumURL,
		BaseURL:     cfg.BaseURL,
		Login:       cfg.SiteLogin,
		Password:    cfg.SitePassword,
	}, log)
	client := browser.NewClient(factory, log)

	eng := engine.New(store, client, b, engine.Config{
		SearchInterval: cfg.SearchInterval,
		LoginInterval:  cfg.LoginInterval,
		MuteRetention:  cfg.MuteRetention,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot")

	go eng.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
