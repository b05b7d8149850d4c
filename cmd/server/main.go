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

	"github.com/lysyi3m/iboxtv/app/api"
	"github.com/lysyi3m/iboxtv/app/cfg"
	"github.com/lysyi3m/iboxtv/app/channel"
	"github.com/lysyi3m/iboxtv/app/database"
	"github.com/lysyi3m/iboxtv/app/ingest"
	"github.com/lysyi3m/iboxtv/app/logging"
	"github.com/lysyi3m/iboxtv/app/metadata"
	"github.com/lysyi3m/iboxtv/app/parser"
	"github.com/lysyi3m/iboxtv/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logCloser := logging.Setup(logging.Options{
		Debug:  appCfg.Debug,
		Format: appCfg.LogFormat,
		File:   appCfg.LogFile,
	})
	defer logCloser.Close()

	if err := run(appCfg); err != nil {
		slog.Error("Server failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting iBox TV server",
		"version", appCfg.Version,
		"store", appCfg.StoreBackend,
		"telegram_mode", appCfg.TelegramMode,
		"channel", appCfg.TelegramChannel)

	showRepo, err := database.OpenShowRepository(database.StoreOptions{
		Backend:      appCfg.StoreBackend,
		DatabaseURL:  appCfg.DatabaseURL,
		DocumentPath: appCfg.DocumentStorePath,
	})
	if err != nil {
		return fmt.Errorf("failed to open show store: %w", err)
	}
	defer showRepo.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	fetcher, err := channel.NewFetcher(channel.Options{
		Mode:        channel.Mode(appCfg.TelegramMode),
		Channel:     appCfg.TelegramChannel,
		BotToken:    appCfg.TelegramBotToken,
		BotEndpoint: appCfg.TelegramAPIEndpoint,
		AppID:       appCfg.TelegramAppID,
		AppHash:     appCfg.TelegramAppHash,
		SessionFile: appCfg.TelegramSessionFile,
		FeedURL:     appCfg.TelegramFeedURL,
		UserAgent:   appCfg.UserAgent,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to create channel fetcher: %w", err)
	}

	enricher := metadata.NewClient(appCfg.OMDbBaseURL, appCfg.OMDbAPIKey, appCfg.UserAgent,
		time.Duration(appCfg.MetadataTimeout)*time.Second, httpClient)
	pipeline := ingest.NewPipeline(fetcher, parser.NewParser(enricher), showRepo)

	slog.Info("Starting background scheduler",
		"workers", appCfg.WorkerCount,
		"interval", time.Duration(appCfg.SchedulerInterval)*time.Second,
		"fetch_limit", appCfg.FetchLimit)
	scheduler := tasks.NewScheduler(pipeline, time.Duration(appCfg.SchedulerInterval)*time.Second,
		appCfg.WorkerCount, appCfg.FetchLimit)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(showRepo, pipeline, api.NewRSSGenerator(appCfg.BaseUrl, appCfg.Version), appCfg.FetchLimit)
	server := api.NewServer(handler)

	// /fetch runs a whole ingestion cycle inside the request.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", appCfg.BaseUrl)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
