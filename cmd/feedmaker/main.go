package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedmaker/internal/config"
	"feedmaker/internal/db"
	"feedmaker/internal/logger"
	"feedmaker/internal/metrics"
	"feedmaker/internal/queue"
	"feedmaker/internal/server"
	"feedmaker/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Загрузка конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Invalid config: %v", err)
	}

	if closer := logger.Init(cfg.Logger); closer != nil {
		defer closer.Close()
	}
	defer logger.Log.Info("Application stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация хранилища
	store, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatalf("Storage error: %v", err)
	}
	defer store.Close()

	m := metrics.New()
	srv := server.NewServer(store, cfg.Channels, m)

	// RabbitMQ: запросы на пересборку и уведомления о публикации
	var notifier worker.Notifier
	var producer *queue.Producer
	if cfg.RabbitMQ.URL != "" {
		producer, err = queue.NewProducer(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Log.Fatalf("RabbitMQ producer error: %v", err)
		}
		defer producer.Close()
		notifier = &queue.Notifier{Producer: producer, Queue: cfg.RabbitMQ.NotifyQueue}
	}

	wrk := worker.NewWorker(store, cfg.Channels, m, notifier)

	if producer != nil {
		consumer, err := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Workers)
		if err != nil {
			logger.Log.Fatalf("RabbitMQ consumer error: %v", err)
		}
		defer consumer.Close()

		if err := consumer.Consume(wrk.HandleTask); err != nil {
			logger.Log.Fatalf("RabbitMQ consume error: %v", err)
		}
		srv.Rebuild = func(ctx context.Context, channel string) error {
			return producer.RequestRebuild(ctx, cfg.RabbitMQ.Queue, channel)
		}
	}

	// Периодическая запись лент на диск
	go wrk.StartPublishing(ctx, cfg.Interval())

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Log.Infof("Starting HTTP server on %s", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Log.Errorf("Forced shutdown: %v", err)
	}
}
