package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"telemart/internal/auth"
	"telemart/internal/catalog"
	"telemart/internal/logger"
	"telemart/internal/order"
	"telemart/internal/router"
	storage "telemart/internal/storage/postgres"
	"telemart/internal/telegram"
	"telemart/internal/user"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := storage.NewPostgresStorage(cfg.DatabaseConnection)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	mode := auth.ParseMode(cfg.Environment)
	gate := auth.NewGate(auth.NewConfig(mode, cfg.BotToken, cfg.AdminIDs(), cfg.InitDataMaxAge))
	if cfg.BotToken == "" && mode == auth.ModeProduction {
		logger.Log.Warn("no bot token configured in production, identity-gated endpoints will fail closed")
	}

	notifier, err := telegram.NewNotifier(cfg.BotToken, cfg.AdminIDs())
	if err != nil {
		// Notifications are best-effort; a broken bot must not stop the API.
		logger.Log.Error("telegram notifier disabled", zap.Error(err))
		notifier = nil
	}

	catalogSvc := catalog.NewService(store)
	catalogHandler := catalog.NewHandler(catalogSvc)

	orderSvc := order.NewService(store, store, notifier)
	orderHandler := order.NewHandler(orderSvc)

	userSvc := user.NewService(store)
	userHandler := user.NewHandler(userSvc, gate)

	r := router.NewRouter(catalogHandler, orderHandler, userHandler, gate, cfg.Origins())

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if cfg.PendingReminderSpec != "" && notifier != nil {
		c := cron.New()
		if err := order.SchedulePendingReminder(c, cfg.PendingReminderSpec, orderSvc, notifier); err != nil {
			logger.Log.Error("pending reminder disabled", zap.Error(err))
		} else {
			c.Start()
			defer c.Stop()
		}
	}

	go func() {
		logger.Log.Info("starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("server stopped gracefully")
	return nil
}
