package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"comicshelf/internal/ratelimit"
	"comicshelf/internal/util"
	"comicshelf/pkg/events"
	"comicshelf/services/auth/internal/app"
	"comicshelf/services/auth/internal/config"
	"comicshelf/services/auth/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		logger.Error("invalid session ttl", "err", err)
		os.Exit(1)
	}
	limitWindow, err := config.ParseLimitWindow(cfg.LimitWindow)
	if err != nil {
		logger.Error("invalid limit window", "err", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Error("failed to connect event broker", "err", err)
			os.Exit(1)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    sessionTTL,
		Events:        publisher,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	signupLimit := cfg.SignupLimit
	if signupLimit <= 0 {
		signupLimit = 5
	}
	loginLimit := cfg.LoginLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}
	signupLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "comicshelf:ratelimit:signup", signupLimit, limitWindow)
	if err != nil {
		logger.Error("failed to init signup limiter", "err", err)
		os.Exit(1)
	}
	loginLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "comicshelf:ratelimit:login", loginLimit, limitWindow)
	if err != nil {
		logger.Error("failed to init login limiter", "err", err)
		os.Exit(1)
	}

	httpServer := server.New(server.Config{
		App:           appCore,
		SignupLimiter: signupLimiter,
		LoginLimiter:  loginLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("auth server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
