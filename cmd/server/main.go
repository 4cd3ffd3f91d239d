package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/config"
	"MemoGallery/internal/handlers"
	"MemoGallery/internal/middleware"
	"MemoGallery/internal/repo"
	"MemoGallery/internal/service"

	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()
	if cfg.Version {
		fmt.Printf("Memo Gallery daemon\nVersion: %s\nBuild date: %s\n", version, buildDate)
		return
	}

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn := repo.NewConn(cfg.DatabaseDSN, sugar)
	defer func() {
		if err := conn.Close(); err != nil {
			sugar.Errorw("Failed to close storage", "error", err)
		}
	}()

	gallery := service.NewGallery(conn, sugar, service.WithMaxBlobBytes(cfg.BlobMaxBytes()))
	// хранилище может быть недоступно при старте: соединение откроется при первом запросе
	if err := gallery.Open(ctx); err != nil {
		sugar.Warnw("storage is not available yet", "dsn", cfg.DatabaseDSN, "error", err)
	}

	ai := aiclient.New(cfg.AIBaseURL).WithMaxImageBytes(cfg.BlobMaxBytes())
	h := handlers.NewHandler(gallery, ai, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Starting server", "addr", srv.Addr)
	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"BlobMaxSizeMB", cfg.BlobMaxSizeMB,
		"AIConfigured", cfg.AIBaseURL != "",
		"Auth", cfg.AuthSecret != "",
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Errorw("Server failed", "error", err)
	}
}
