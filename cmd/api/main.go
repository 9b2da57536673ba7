package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kursadbilgin/outreach-pipeline/internal/config"
	"github.com/kursadbilgin/outreach-pipeline/internal/delivery"
	"github.com/kursadbilgin/outreach-pipeline/internal/handler"
	"github.com/kursadbilgin/outreach-pipeline/internal/infra/database"
	infraredis "github.com/kursadbilgin/outreach-pipeline/internal/infra/redis"
	"github.com/kursadbilgin/outreach-pipeline/internal/observability"
	"github.com/kursadbilgin/outreach-pipeline/internal/queue"
	"github.com/kursadbilgin/outreach-pipeline/internal/repository"
	"github.com/kursadbilgin/outreach-pipeline/internal/service"
	"github.com/kursadbilgin/outreach-pipeline/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("outreach-pipeline api exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	deps := handler.Dependencies{DB: sqlDB}
	metrics := observability.NewMetrics()
	leadRepo := repository.NewGormLeadRepo(db)

	var locker service.TickLocker
	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer rdb.Close()

		tickLock, err := infraredis.NewTickLock(rdb, infraredis.DefaultTickLockKey, cfg.SchedulerTickTimeout)
		if err != nil {
			return err
		}
		locker = tickLock
		deps.Redis = rdb
	}

	sender, closeSender, err := newSender(ctx, cfg, logger, &deps)
	if err != nil {
		return err
	}
	defer closeSender()

	leadService, err := service.NewLeadService(leadRepo, logger)
	if err != nil {
		return err
	}
	leadService.SetMetrics(metrics)
	leadService.SetStoreTimeout(cfg.StoreTimeout)

	outreachService, err := service.NewOutreachService(leadRepo, sender, cfg.DeliveryFrom, logger)
	if err != nil {
		return err
	}
	outreachService.SetMetrics(metrics)
	outreachService.SetStoreTimeout(cfg.StoreTimeout)

	scheduler, err := service.NewFollowUpScheduler(leadRepo, outreachService, service.SchedulerConfig{
		Interval:    cfg.FollowUpScanInterval,
		DueAfter:    cfg.FollowUpDueAfter,
		Limit:       cfg.FollowUpBatchLimit,
		TickTimeout: cfg.SchedulerTickTimeout,
	}, logger)
	if err != nil {
		return err
	}
	scheduler.SetMetrics(metrics)
	if locker != nil {
		scheduler.SetLocker(locker)
	}

	app := fiber.New(fiber.Config{
		AppName:      "outreach-pipeline",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(observability.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, deps)
	if err := handler.RegisterLeadRoutes(app, leadService); err != nil {
		return err
	}
	if err := handler.RegisterOutreachRoutes(app, outreachService); err != nil {
		return err
	}

	logger.Info("outreach-pipeline api starting",
		zap.Int("port", cfg.APIPort),
		zap.String("databaseDriver", cfg.DatabaseDriver),
		zap.String("deliveryMode", cfg.DeliveryMode),
	)

	return serve(ctx, app, fmt.Sprintf(":%d", cfg.APIPort), scheduler, cfg.ShutdownTimeout, logger)
}

// backgroundJob is a component whose lifetime follows the HTTP server.
type backgroundJob interface {
	Start(ctx context.Context) error
	Stop()
}

// serve runs the HTTP server and starts job only once the listener is bound.
// A failed bind never starts job. Cancelling ctx stops job, then the server.
func serve(
	ctx context.Context,
	app *fiber.App,
	addr string,
	job backgroundJob,
	shutdownTimeout time.Duration,
	logger *zap.Logger,
) error {
	listening := make(chan struct{})
	var listenOnce sync.Once
	app.Hooks().OnListen(func(data fiber.ListenData) error {
		listenOnce.Do(func() {
			logger.Info("outreach-pipeline api listening", zap.String("host", data.Host), zap.String("port", data.Port))
			close(listening)
		})
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-listening:
		}
		if err := job.Start(gctx); err != nil && !errors.Is(err, service.ErrSchedulerRunning) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))

		job.Stop()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newSender(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	deps *handler.Dependencies,
) (delivery.Sender, func(), error) {
	noop := func() {}

	switch cfg.DeliveryMode {
	case config.DeliveryModeWebhook:
		sender, err := delivery.NewWebhookSender(cfg.DeliveryWebhookURL)
		if err != nil {
			return nil, noop, fmt.Errorf("webhook sender initialization failed: %w", err)
		}
		return sender, noop, nil
	case config.DeliveryModeQueue:
		mq, err := queue.NewRabbitMQ(ctx, cfg.RabbitMQURL)
		if err != nil {
			return nil, noop, fmt.Errorf("rabbitmq initialization failed: %w", err)
		}
		publisher := queue.NewRabbitMQPublisher(mq)
		sender, err := delivery.NewQueueSender(publisher, queue.EmailQueue)
		if err != nil {
			_ = publisher.Close()
			return nil, noop, err
		}
		deps.Broker = mq
		return sender, func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("rabbitmq close failed", zap.Error(err))
			}
		}, nil
	default:
		return delivery.NewLogSender(logger), noop, nil
	}
}
