package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"comicshelf/internal/util"
	"comicshelf/pkg/auth"
	"comicshelf/pkg/storage"
	"comicshelf/services/archivist/internal/app"
	"comicshelf/services/archivist/internal/config"
	"comicshelf/services/archivist/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	sessions, err := auth.NewSessionSigner(cfg.SessionSecret, 0)
	if err != nil {
		logger.Error("invalid session secret", "err", err)
		os.Exit(1)
	}

	var covers storage.CoverStore
	if cfg.MinioEndpoint != "" {
		covers, err = storage.NewMinioCoverStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Error("failed to init cover storage", "err", err)
			os.Exit(1)
		}
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:     cfg.DatabaseURL,
		Covers:          covers,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		ChatModel:       cfg.ChatModel,
		ImageModel:      cfg.ImageModel,
		MetadataBaseURL: cfg.MetadataBaseURL,
		MetadataAPIKey:  cfg.MetadataAPIKey,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		HistoryLimit:    cfg.HistoryLimit,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	httpServer := server.New(server.Config{
		App:      appCore,
		Sessions: sessions,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("archivist server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
