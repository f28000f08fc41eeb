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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"waitlist-backend/config"
	"waitlist-backend/internal/api"
	"waitlist-backend/internal/db"
	"waitlist-backend/internal/engine"
	"waitlist-backend/internal/notification"
	"waitlist-backend/internal/scheduler"
	"waitlist-backend/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not loaded: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Infof("configuration loaded from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.SeedTables(gormDB, cfg.Tables); err != nil {
		logger.Fatalf("failed to provision tables: %v", err)
	}
	logger.Infof("database initialized, %d tables provisioned", len(cfg.Tables))

	appStore := store.NewGormStore(gormDB)

	// The engine rereads settings from the config file on every background
	// run, so wait/timeout/retention knobs can change without a restart.
	settings := config.NewFileSettings(configPath, cfg.Waitlist)
	eng := engine.New(appStore, settings, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Table-ready push notifications are optional: without VAPID keys the
	// engine runs with dispatch disabled.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger)
		pool.Start(ctx)
		eng.SetNotifier(pool)
		logger.Infof("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Info("VAPID keys not configured, push notifications disabled")
	}

	sched := scheduler.New(cfg.Scheduler, eng, logger)
	sched.Start(ctx)

	router := api.NewRouter(cfg.Server, eng, appStore, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services...")

	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Info("server gracefully stopped")
}
