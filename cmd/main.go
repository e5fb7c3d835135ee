package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flaticonapi/api"
	"flaticonapi/config"
	"flaticonapi/flaticon"
	"flaticonapi/pkg/httpclient"
	"flaticonapi/storage"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	httpClient, err := httpclient.New(cfg.ProxyURL, cfg.HTTPTimeout)
	if err != nil {
		logger.Fatal("failed to create http client", zap.Error(err))
	}

	// =========
	// Flaticon client
	// =========
	client, err := flaticon.NewClient(
		flaticon.WithFetcher(newFetcher(cfg.Fetcher, httpClient)),
		flaticon.WithBaseURL(cfg.BaseURL),
		flaticon.WithMarkup(cfg.Markup),
		flaticon.WithLogger(logger.Named("flaticon")),
	)
	if err != nil {
		logger.Fatal("failed to create flaticon client", zap.Error(err))
	}

	// =========
	// History
	// =========
	var history storage.HistoryRepository
	if cfg.HistoryDBPath != "" {
		store, err := storage.Open(cfg.HistoryDBPath)
		if err != nil {
			logger.Fatal("failed to open history store", zap.String("path", cfg.HistoryDBPath), zap.Error(err))
		}
		defer store.Close()
		history = store
	}

	// =========
	// API server
	// =========
	server := api.NewServer(cfg.AppPort, client, history, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func newFetcher(kind string, hc *http.Client) flaticon.Fetcher {
	if kind == "colly" {
		return flaticon.NewCollyFetcher(hc)
	}
	return flaticon.NewHTTPFetcher(hc)
}
