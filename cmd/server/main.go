package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileuploader-backend/internal/api"
	"fileuploader-backend/internal/blob"
	"fileuploader-backend/internal/cache"
	"fileuploader-backend/internal/config"
	"fileuploader-backend/internal/store"
	"fileuploader-backend/internal/upload"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	assetStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open asset store", "error", err)
		os.Exit(1)
	}
	defer assetStore.Close()

	blobs, err := blob.NewStore(cfg.StorageRoot)
	if err != nil {
		logger.Error("failed to initialize storage root", "root", cfg.StorageRoot, "error", err)
		os.Exit(1)
	}

	svc := upload.NewService(assetStore, blobs, cache.New(), logger)
	handler := api.NewHandler(cfg, svc, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("file uploader listening", "addr", server.Addr, "driver", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down file uploader")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverBolt:
		return store.NewBoltStore(cfg.BoltPath)
	default:
		if err := store.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
