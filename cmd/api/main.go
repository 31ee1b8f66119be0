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
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kidsfolio/internal/api"
	"kidsfolio/internal/auth"
	"kidsfolio/internal/config"
	"kidsfolio/internal/content"
	"kidsfolio/internal/database"
	"kidsfolio/internal/export"
	"kidsfolio/internal/i18n"
	"kidsfolio/internal/storage"
	"kidsfolio/internal/translate"
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
	if err := database.Migrate(db, content.Tables()); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	snapshotQueue := export.NewAsynqQueue(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer snapshotQueue.Close()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	tokens, err := auth.LoadIssuer(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init token issuer: %v", err)
	}

	overlay := newTranslationOverlay(cfg.Translation, redisClient, logger)
	labels := i18n.MustNewBundle(cfg.Translation.SourceLang)

	portfolios := database.NewPortfolioRepository(db)
	handlers := api.Handlers{
		Pages: api.NewPageHandler(portfolios, overlay, labels,
			cfg.Translation.SourceLang, cfg.API.CookieDomain, logger),
		Portfolios: api.NewPortfolioHandler(portfolios, snapshotQueue, storageClient,
			cfg.Translation.SourceLang, cfg.Snapshot.Timeout, cfg.Snapshot.LinkTTL, logger),
		Ws: api.NewWsHandler(portfolios, redisClient, logger, cfg.API.AllowedOrigins),
		Auth: api.NewAuthHandler(database.NewUserRepository(db), tokens,
			api.NewRedisSessionGuard(redisClient, cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL),
			cfg.API.CookieDomain),
		AdminPortfolio: api.NewAdminPortfolioHandler(portfolios, storageClient),
		Content:        api.NewContentHandler(content.NewService(database.NewContentRepository(db))),
		Bookings: api.NewBookingHandler(database.NewBookingRepository(db), redisClient,
			cfg.API.BookingRateLimitPerHour),
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, handlers, tokens, cfg.Internal.Secret)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down api server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// newTranslationOverlay 未配置模型服务时返回不可用的 Overlay，页面回落到原文加提示条。
func newTranslationOverlay(cfg config.TranslationConfig, redisClient redis.UniversalClient, logger *slog.Logger) *translate.Overlay {
	cache := translate.NewRedisCache(redisClient, "")
	opts := []translate.Option{
		translate.WithCacheTTL(cfg.CacheTTL),
		translate.WithCallTimeout(cfg.Timeout),
		translate.WithLogger(logger),
	}

	if !cfg.Enabled() {
		logger.Warn("translation disabled: base url, api key or model missing")
		return translate.NewOverlay(nil, cache, opts...)
	}

	completer, err := translate.NewOpenAICompleter(cfg)
	if err != nil {
		logger.Warn("translation disabled", slog.Any("error", err))
		return translate.NewOverlay(nil, cache, opts...)
	}
	opts = append(opts, translate.WithVersion(completer.Model()))
	return translate.NewOverlay(completer, cache, opts...)
}
