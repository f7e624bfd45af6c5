package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"projecthub/config"
	"projecthub/internal/notify"
	"projecthub/pkg/db"
	"projecthub/pkg/logger"
	"projecthub/pkg/mq"
	"projecthub/pkg/otel"
	"projecthub/pkg/outbox"
	"projecthub/pkg/redis"
	"projecthub/pkg/util"
)

// The worker delivers queued notification e-mails and republishes events parked in the outbox.
func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	cfg.Otel.ServiceName = cfg.Otel.ServiceName + "-worker"
	shutdownOtel, err := otel.Init(cfg.Otel, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOtel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Starting notification worker...")

	// Init Redis
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()
	deduper := util.NewDeduper(rdb, cfg.Worker.DedupTTL, log)

	// Publisher for outbox redelivery
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	if cfg.Storage.Driver == config.DriverPostgres {
		pool, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("DB initialization failed", zap.Error(err))
		}
		defer pool.Close()

		dispatcher := outbox.NewDispatcher(outbox.NewRepository(pool), publisher, log)
		if cfg.Worker.OutboxInterval > 0 {
			dispatcher.WithInterval(cfg.Worker.OutboxInterval)
		}
		if cfg.Worker.OutboxBatchSize > 0 {
			dispatcher.WithBatchSize(cfg.Worker.OutboxBatchSize)
		}
		if cfg.Worker.OutboxRetries > 0 {
			dispatcher.WithMaxRetries(cfg.Worker.OutboxRetries)
		}
		go dispatcher.Start(ctx)
		log.Info("Outbox dispatcher started")
	} else {
		log.Warn("Outbox dispatcher disabled for non-postgres storage", zap.String("driver", cfg.Storage.Driver))
	}

	// Notification consumer
	h := notify.NewHandler(notify.NewSMTPSender(cfg.SMTP), deduper, log)

	log.Info("Initializing notification consumer",
		zap.String("queue", cfg.Worker.Queue),
		zap.String("routing_key", notify.RoutingKey),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.Worker.Queue, notify.RoutingKey, log)
	if err != nil {
		log.Fatal("Failed to init notification consumer", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(h.Handle)

	go func() {
		log.Info("Starting notification consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Notification consumer failed", zap.Error(err))
		}
	}()

	log.Info("Notification worker is running",
		zap.String("queue", cfg.Worker.Queue),
		zap.String("smtp_host", cfg.SMTP.Host),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notification worker gracefully...")
	consumer.Stop()
	cancel()
	log.Info("Notification worker shutdown complete")
}
