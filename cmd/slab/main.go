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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
	"github.com/xela07ax/mandate-infra-prototype/internal/journal"
	"github.com/xela07ax/mandate-infra-prototype/internal/repository/postgres"
	"github.com/xela07ax/mandate-infra-prototype/internal/slab"
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
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := eventRepo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancelPing()

	jrnl := journal.New(eventRepo, logger, journal.Options{
		BufferSize:    cfg.Journal.BufferSize,
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
	})
	jrnl.Start()
	defer jrnl.Stop()

	// Slab только проверяет токены: подпись остается за router
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse public key", zap.Error(err))
	}
	validator := auth.NewIdentityValidator(publicKey)

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := slab.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// Контекст жизненного цикла фоновых слушателей:
	// cancel() останавливает их при SIGTERM
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Горячий кэш отозванных мандатов
	watch := slab.NewRevocationWatch(rdb, logger, metrics)
	if err := watch.Init(appCtx); err != nil {
		logger.Fatal("failed to init revocation watch", zap.Error(err))
	}
	go watch.StartListener(appCtx)

	// 4. Ядро реестра
	sharedStore := store.NewRedisStore(rdb)
	ledger := slab.NewLedger(sharedStore, watch, jrnl, logger, metrics)
	ledgerHandler := slab.NewHandler(ledger)

	// 5. HTTP Server
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auth.TracingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Защищенный периметр: все операции реестра требуют RS256 токен
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(validator, logger))
		ledgerHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("slab ledger started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("slab ledger stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("slab ledger exited properly")
}
