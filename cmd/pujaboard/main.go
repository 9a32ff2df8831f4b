package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pujaboard/internal/bot"
	"pujaboard/internal/cache"
	"pujaboard/internal/category"
	"pujaboard/internal/classify"
	"pujaboard/internal/config"
	"pujaboard/internal/feed"
	"pujaboard/internal/pipeline"
	"pujaboard/internal/scheduler"
	"pujaboard/internal/server"
	"pujaboard/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	for _, p := range []string{cfg.DatabasePath, cfg.CachePath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Error("create data directory", "path", dir, "error", err)
				os.Exit(1)
			}
		}
	}

	classifier := classify.Classifier{
		LongRunningDays:       cfg.LongRunningDays,
		PresenceExclusionDays: cfg.PresenceExclusionDays,
	}
	categories := category.New(
		http.DefaultClient,
		cfg.CategorizerURL,
		cfg.CategorizerKey,
		cache.New(cfg.CachePath),
		log,
	)

	pipe := pipeline.New(classifier, categories, log)
	srv := server.New(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var notifier scheduler.Notifier
	if cfg.TelegramToken != "" {
		store, err := storage.NewSQLite(cfg.DatabasePath)
		if err != nil {
			log.Error("open database", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		b, err := bot.New(cfg.TelegramToken, store, srv, log)
		if err != nil {
			log.Error("create bot", "error", err)
			os.Exit(1)
		}
		notifier = b
		go b.Run(ctx)
	}

	sched := scheduler.New(
		feed.New(http.DefaultClient),
		feed.NewDecoder(log),
		pipe,
		srv,
		notifier,
		cfg.EventsURL,
		cfg.PresenceURL,
		log,
	)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	log.Info("starting pujaboard")

	if err := sched.Run(ctx, cfg.EventsRefresh, cfg.PresenceRefresh, cfg.DigestCron); err != nil {
		log.Error("scheduler", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	log.Info("pujaboard stopped")
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
