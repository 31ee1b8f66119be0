package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kidsfolio/internal/config"
	"kidsfolio/internal/database"
	"kidsfolio/internal/metrics"
	"kidsfolio/internal/storage"
	"kidsfolio/internal/tasks"
	"kidsfolio/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	// 每个任务独占一个 Chromium，并发数即浏览器实例数。
	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency:     cfg.Snapshot.Concurrency,
		Queues:          map[string]int{tasks.QueueSnapshots: 1},
		Logger:          newAsynqLogger(logger),
		ShutdownTimeout: cfg.Snapshot.Timeout,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePortfolioSnapshot, worker.NewSnapshotHandler(
		database.NewPortfolioRepository(db),
		storageClient,
		redisClient,
		worker.NewRodCapturer(logger, cfg.Snapshot.BrowserBin, cfg.Snapshot.Timeout, cfg.Snapshot.ViewportWidth),
		logger,
		cfg.Internal.Secret,
		cfg.Internal.BaseURL,
		cfg.Snapshot.LinkTTL,
	))

	if err := server.Start(mux); err != nil {
		log.Fatalf("start worker: %v", err)
	}
	logger.Info("snapshot worker started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Snapshot.Concurrency),
	)

	g, gCtx := errgroup.WithContext(ctx)
	if cfg.Snapshot.MetricsPort > 0 {
		metricsSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Snapshot.MetricsPort),
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping snapshot worker")
		server.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
