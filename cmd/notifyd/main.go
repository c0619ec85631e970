package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"pharmagister-backend/config"
	"pharmagister-backend/internal/api"
	"pharmagister-backend/internal/badge"
	"pharmagister-backend/internal/db"
	"pharmagister-backend/internal/maintenance"
	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/notification"
	"pharmagister-backend/internal/push"
	"pharmagister-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "pharmagister-notify ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Metrics accumulator, owned here and injected downstream.
	acc := metrics.NewAccumulator()
	go acc.RunFlusher(ctx, cfg.Metrics.FlushInterval, logger)

	// Delivery pipeline: engine -> worker pool -> record writer.
	engine := push.NewEngine(appStore, &webpushOptions, acc, cfg.Push.IconPath, cfg.Push.BadgePath)
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, engine, acc)
	pool.Start(ctx)
	writer := notification.NewWriter(appStore, pool, acc)

	// Badge watcher polls the store and streams unread counts.
	watcher := badge.NewWatcher(appStore, cfg.Badge.PollInterval)
	go watcher.Run(ctx)

	ops := maintenance.NewOps(appStore)

	// Initialize router
	handler := api.NewHandler(appStore, engine, writer, ops, &webpushOptions)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
