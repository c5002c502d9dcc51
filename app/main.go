package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-relay/app/api"
	"github.com/lysyi3m/rss-relay/app/cfg"
	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/logging"
	"github.com/lysyi3m/rss-relay/app/pipeline"
	"github.com/lysyi3m/rss-relay/app/tasks"
	"github.com/lysyi3m/rss-relay/app/telegram"
	"github.com/lysyi3m/rss-relay/app/transform"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	logCloser, err := logging.Setup(logging.Config{
		Format: appCfg.LogFormat,
		Debug:  appCfg.Debug,
		File:   appCfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.Info("Starting RSS Relay", "version", appCfg.Version, "command", appCfg.Command)

	config, err := feed.LoadConfig(appCfg.SourcesFile)
	if err != nil {
		return err
	}
	slog.Info("Sources loaded", "file", appCfg.SourcesFile, "count", len(config.Sources), "names", config.Names())

	fetcher := feed.NewFetcher(&http.Client{}, appCfg.UserAgent, config.Settings.GetFetchTimeout())

	if appCfg.Command == cfg.CommandCheck {
		return runCheck(config, fetcher)
	}

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	itemRepo := database.NewItemRepository(db)

	client := telegram.NewClient(telegram.Config{
		BaseURL:       appCfg.TelegramAPIURL,
		Token:         appCfg.TelegramToken,
		RetryAttempts: config.Settings.Telegram.RetryAttempts,
		RetryDelay:    config.Settings.Telegram.GetRetryDelay(),
	})

	runner := pipeline.NewRunner(config, fetcher, transform.NewRegistry(), client, itemRepo)

	switch appCfg.Command {
	case cfg.CommandRun:
		return runOnce(runner, appCfg.MarkSeen)
	case cfg.CommandCleanup:
		return runCleanup(runner)
	default:
		return serve(appCfg, config, runner, itemRepo)
	}
}

func serve(appCfg *cfg.Cfg, config *feed.Config, runner *pipeline.Runner, itemRepo database.ItemRepository) error {
	slog.Info("Starting scheduler",
		"poll_interval", config.Settings.GetPollInterval(),
		"retention_hour", config.Settings.GetRetentionHour())
	scheduler := tasks.NewScheduler(runner, config.Settings)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(config.Sources, runner, itemRepo)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     server,
		ReadTimeout: 30 * time.Second,
		// /test answers only after a whole update run
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		slog.Info("Endpoint available", "name", "trigger", "url", fmt.Sprintf("http://localhost:%s/test", appCfg.Port))
		slog.Info("Endpoint available", "name", "health", "url", fmt.Sprintf("http://localhost:%s/health", appCfg.Port))
		slog.Info("Endpoint available", "name", "metrics", "url", fmt.Sprintf("http://localhost:%s/metrics", appCfg.Port))

		if appCfg.APIAccessKey != "" {
			slog.Info("Endpoint available", "name", "feeds", "url", fmt.Sprintf("http://localhost:%s/api/feeds", appCfg.Port))
			slog.Info("Endpoint available", "name", "cleanup", "url", fmt.Sprintf("http://localhost:%s/api/cleanup", appCfg.Port))
		} else {
			slog.Info("API endpoints disabled, API_ACCESS_KEY not set")
		}

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("RSS Relay started, press Ctrl+C to shutdown")

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	return serveErr
}
