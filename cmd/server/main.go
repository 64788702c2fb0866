package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/app"
	"github.com/artshin/app-log-service/internal/config"
	"github.com/artshin/app-log-service/internal/domain/logentry"
	"github.com/artshin/app-log-service/internal/domain/logrequest"
	"github.com/artshin/app-log-service/internal/infrastructure/auth"
	"github.com/artshin/app-log-service/internal/infrastructure/logging"
	"github.com/artshin/app-log-service/internal/infrastructure/monitoring"
	"github.com/artshin/app-log-service/internal/infrastructure/ratelimit"
	redisinfra "github.com/artshin/app-log-service/internal/infrastructure/redis"
	"github.com/artshin/app-log-service/internal/infrastructure/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync(logger)

	if err := monitoring.InitSentry(cfg.Monitoring, cfg.App); err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	monitoring.Init()
	defer monitoring.Flush()

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if cfg.Redis.Addr != "" {
			if client, err := redisinfra.Connect(cfg.Redis, logger); err == nil {
				limiter = ratelimit.NewRedisLimiter(client.Native, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RedisPrefix+":ip")
				defer client.Close()
			} else {
				logger.Warn("redis connect failed, falling back to memory limiter", zap.Error(err))
			}
		}
		if limiter == nil {
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		}
	}

	ring := logentry.NewRingStore(cfg.Buffer.Capacity)
	hub := logentry.NewHub()
	logService := logentry.NewService(ring, hub, logger, cfg.Buffer.StreamBuffer)
	logHandler := logentry.NewHandler(logService)

	uploads, err := storage.NewUploads(cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Fatal("init upload storage", zap.Error(err))
	}
	requestManager := logrequest.NewManager(logger)
	go runRequestCleanup(ctx, requestManager)

	authManager := auth.NewManager(cfg.Auth)
	requestHandler := logrequest.NewHandler(requestManager, uploads, logger)

	router := app.NewRouter(app.RouterDeps{
		Config:         cfg,
		LogHandler:     logHandler,
		RequestHandler: requestHandler,
		AuthManager:    authManager,
		Logger:         logger,
		Limiter:        limiter,
	})

	logger.Info("log relay ready",
		zap.Int("capacity", cfg.Buffer.Capacity),
		zap.Int("stream_buffer", cfg.Buffer.StreamBuffer),
	)

	server := &app.Server{Engine: router, Addr: ":" + cfg.App.Port, Logger: logger}
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runRequestCleanup(ctx context.Context, manager *logrequest.Manager) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			manager.CleanupExpired()
		case <-ctx.Done():
			return
		}
	}
}
