package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
	"github.com/xela07ax/mandate-infra-prototype/internal/journal"
	"github.com/xela07ax/mandate-infra-prototype/internal/repository/postgres"
	"github.com/xela07ax/mandate-infra-prototype/internal/router/handler"
	"github.com/xela07ax/mandate-infra-prototype/internal/router/server"
	"github.com/xela07ax/mandate-infra-prototype/internal/router/service"
	"github.com/xela07ax/mandate-infra-prototype/internal/store"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	eventRepo := postgres.NewEventRepo(cfg.Database.URL)
	// Проверяем соединение с таймаутом
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := eventRepo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancelPing()

	// Журнал событий: данные летят в базу пачками
	jrnl := journal.New(eventRepo, logger, journal.Options{
		BufferSize:    cfg.Journal.BufferSize,
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
	})
	jrnl.Start()
	defer jrnl.Stop()

	// 3. Ключи RS256: router и подписывает, и проверяет
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to parse private key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	validator := auth.NewIdentityValidator(publicKey)

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 4. Сборка слоев (Dependency Injection)
	sharedStore := store.NewRedisStore(rdb)
	bus := service.NewRedisBroadcaster(rdb)

	authority := service.NewAuthority(sharedStore, bus, jrnl, logger, metrics)
	authService := service.NewAuthService(eventRepo, privateKey, cfg.Auth.TokenTTL)
	eventService := service.NewEventService(eventRepo)

	srvHandler := server.NewRouterServer(
		cfg,
		logger,
		validator,
		handler.NewAuthHandler(authService),
		handler.NewAuthorityHandler(authority),
		handler.NewEventHandler(eventService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srvHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("mandate router started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("mandate router stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("mandate router exited properly")
}
