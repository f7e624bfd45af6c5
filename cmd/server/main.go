package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"projecthub/config"
	"projecthub/internal/auth"
	"projecthub/internal/board"
	"projecthub/internal/changerequest"
	"projecthub/internal/handler"
	"projecthub/internal/health"
	"projecthub/internal/httpserver"
	"projecthub/internal/notify"
	"projecthub/internal/project"
	"projecthub/internal/register"
	"projecthub/internal/repository"
	"projecthub/internal/repository/memory"
	"projecthub/internal/repository/pg"
	"projecthub/internal/sequence"
	"projecthub/internal/textgen"
	"projecthub/pkg/db"
	"projecthub/pkg/logger"
	"projecthub/pkg/mq"
	"projecthub/pkg/otel"
	"projecthub/pkg/outbox"
	"projecthub/pkg/redis"
)

var errMQDisconnected = errors.New("mq publisher disconnected")

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	shutdownOtel, err := otel.Init(cfg.Otel, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownOtel()

	ctx := context.Background()

	// Storage
	var (
		repos repository.Repositories
		pool  *pgxpool.Pool
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		repos = memory.NewStore().Repositories()
	default:
		pool, err = db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("DB initialization failed", zap.Error(err))
		}
		if cfg.DB.Migrate {
			if err := db.Migrate(ctx, pool, log); err != nil {
				log.Fatal("DB migration failed", zap.Error(err))
			}
		}
		repos = pg.New(pool, log)
	}
	defer repos.Close()

	// Redis is optional unless the redis sequence strategy is selected.
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.Sequence.Strategy == sequence.StrategyRedis {
				log.Fatal("Redis is required for the redis sequence strategy", zap.Error(err))
			}
			log.Warn("Redis unavailable, health cache disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var healthCache health.Cache = health.NopCache{}
	if rdb != nil {
		healthCache = health.NewRedisCache(rdb, cfg.Health.CacheTTL, log)
	}

	seq, err := sequence.New(cfg.Sequence.Strategy, rdb)
	if err != nil {
		log.Fatal("Failed to init sequence allocator", zap.Error(err))
	}

	// Notifications go to the broker; failed publishes are parked in the outbox when Postgres is in use.
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	var publisher *mq.Publisher
	if cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ unavailable, notifications will only be logged", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
			var parker notify.Parker
			if pool != nil {
				parker = outbox.NewRepository(pool)
			}
			notifier = notify.NewMQNotifier(publisher, parker, log)
		}
	}

	writer, err := textgen.New(cfg.TextGen, log)
	if err != nil {
		log.Fatal("Failed to init text generation", zap.Error(err))
	}

	// Services
	healthSvc := health.NewService(repos, healthCache, log)
	authSvc := auth.NewService(repos.Users, cfg.JWT.Secret, cfg.JWT.TTL, cfg.Auth.Roles(), log)
	projectSvc := project.NewService(repos, healthSvc, log)
	boardSvc := board.NewService(repos, healthSvc, notifier, log)
	registerSvc := register.NewService(repos, seq, healthSvc, notifier, log)
	pcrSvc := changerequest.NewService(repos, seq, writer, notifier, log)

	// HTTP Server
	handlers := httpserver.Handlers{
		Auth:           handler.NewAuthHandler(authSvc, log),
		Projects:       handler.NewProjectHandler(projectSvc, healthSvc, log),
		Board:          handler.NewBoardHandler(boardSvc, log),
		Register:       handler.NewRegisterHandler(registerSvc, log),
		ChangeRequests: handler.NewChangeRequestHandler(pcrSvc, log),
	}
	checks := []httpserver.ReadyCheck{{Name: "db", Check: repos.Ping}}
	if rdb != nil {
		checks = append(checks, httpserver.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if publisher != nil {
		checks = append(checks, httpserver.ReadyCheck{Name: "mq", Check: func(context.Context) error {
			if !publisher.IsConnected() {
				return errMQDisconnected
			}
			return nil
		}})
	}
	router := httpserver.NewRouter(handlers, cfg.JWT.Secret, log, checks...)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("projecthub server is fully initialized and running",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("sequence", cfg.Sequence.Strategy),
		zap.Bool("redis", rdb != nil),
		zap.Bool("mq", publisher != nil),
		zap.Bool("textgen", cfg.TextGen.Enabled),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down projecthub server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("projecthub server shutdown complete")
}
