package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BorisDmv/blog-api/internal/auth"
	"github.com/BorisDmv/blog-api/internal/config"
	"github.com/BorisDmv/blog-api/internal/db"
	"github.com/BorisDmv/blog-api/internal/posts"
	"github.com/BorisDmv/blog-api/internal/server"
	"github.com/BorisDmv/blog-api/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("token service", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	store, err := db.Open(connectCtx, cfg.DatabaseURL)
	cancelConnect()
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("db close failed", "error", err)
		}
	}()

	directory := users.NewDirectory(store, tokens, logger)
	if err := directory.EnsureAdmin(ctx, users.AdminSeed{
		Email:       cfg.Admin.Email,
		Password:    cfg.Admin.Password,
		DisplayName: cfg.Admin.DisplayName,
	}); err != nil {
		logger.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	handler := server.NewRouter(server.Deps{
		Tokens:             tokens,
		Users:              directory,
		Posts:              posts.NewService(store),
		Logger:             logger,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
