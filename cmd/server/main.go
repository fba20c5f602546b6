package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitit/internal/config"
	"github.com/fitit/internal/db"
	"github.com/fitit/internal/handler"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/metrics"
	"github.com/fitit/internal/middleware"
	"github.com/fitit/internal/router"
	"github.com/fitit/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env 可选，缺失时只用环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg := config.Load()

	zlog, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		zlog.Fatal("failed to register metrics", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)

	prefs, err := openPreferenceStore(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := service.NewFoodCatalogStore(prefs, zlog)
	entries := service.NewDailyEntryStore(prefs, zlog)
	// 读取失败时以空数据启动，内存状态仍可用
	if err := catalog.Load(ctx); err != nil {
		zlog.Warn("food catalog loaded empty", zap.Error(err))
	}
	if err := entries.Load(ctx); err != nil {
		zlog.Warn("daily entries loaded empty", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, time.Minute)

	api := handler.NewAPI(catalog, entries, zlog, cfg.Language)
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		Logger:        zlog,
		RateLimiter:   limiter,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}

	// 等待排队中的写入落盘
	catalog.Close()
	entries.Close()
}

func openPreferenceStore(cfg config.AppConfig) (service.PreferenceStore, error) {
	if cfg.StorageDriver == config.StorageMemory {
		return service.NewMemoryPreferenceStore(nil), nil
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, err
	}
	return service.NewGormPreferenceStore(db.DB), nil
}
