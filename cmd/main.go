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

	"gestly/internal/caching"
	"gestly/internal/config"
	"gestly/internal/handlers"
	"gestly/internal/jobs/background"
	"gestly/internal/logging"
	"gestly/internal/middleware"
	"gestly/internal/migrations"
	"gestly/internal/repositories"
	"gestly/internal/services"
	"gestly/internal/webhooks"
	"gestly/pkg/database"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "gestly-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		result, err := migrations.NewRunner(pool, os.DirFS(cfg.Database.MigrationsDir), logger).Run(ctx)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied at startup", zap.Strings("files", result.Applied))
	}

	// Without Redis, counters and caches live in this process and the rate
	// limiter uses its local token buckets.
	var (
		cacheSvc    caching.CacheService
		sharedCache caching.CacheService
	)
	if cfg.Redis.Enabled() {
		client, err := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		cacheSvc = caching.NewRedisCacheService(client)
		sharedCache = cacheSvc
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process cache and rate limiter")
		cacheSvc = caching.NewMemoryCacheService()
	}

	var storage services.ReportStorage
	if cfg.MinIO.Enabled() {
		storage, err = services.NewMinioStorage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL, cfg.MinIO.Bucket)
		if err != nil {
			return fmt.Errorf("init minio: %w", err)
		}
		if err := storage.EnsureBucketExists(ctx); err != nil {
			return fmt.Errorf("ensure report bucket: %w", err)
		}
	} else {
		logger.Info("MINIO_ENDPOINT not set, financial reports are streamed")
	}

	var jwks *keyfunc.JWKS
	if cfg.Auth.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.Auth.JWKSURL, keyfunc.Options{
			Ctx:             ctx,
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				logger.Warn("jwks refresh failed", zap.Error(err))
			},
		})
		if err != nil {
			return fmt.Errorf("load jwks: %w", err)
		}
		defer jwks.EndBackground()
	}

	store := repositories.NewStore(pool)

	dispatcher := webhooks.NewDispatcher(store.Webhooks, store.Deliveries, webhooks.Config{
		Timeout:     cfg.Webhook.Timeout,
		MaxAttempts: cfg.Webhook.MaxAttempts,
	}, logger)
	defer dispatcher.Wait()

	authSvc := services.NewAuthService(store, store.Profiles, store.Businesses, cacheSvc,
		cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, logger)
	apiKeySvc := services.NewAPIKeyService(store.APIKeys, cacheSvc, logger)

	h := handlers.Handlers{
		Health:       handlers.NewHealthHandlers(pool, cacheSvc, version),
		Auth:         handlers.NewAuthHandlers(authSvc),
		Profiles:     handlers.NewProfileHandlers(services.NewProfileService(store.Profiles)),
		APIKeys:      handlers.NewAPIKeyHandlers(apiKeySvc),
		Customers:    handlers.NewCustomerHandlers(services.NewCustomerService(store.Customers, dispatcher)),
		Services:     handlers.NewServiceHandlers(services.NewCatalogService(store.Services)),
		Appointments: handlers.NewAppointmentHandlers(services.NewAppointmentService(store, store, dispatcher, cacheSvc, logger)),
		Loyalty:      handlers.NewLoyaltyHandlers(services.NewLoyaltyService(store, store, dispatcher)),
		Reviews:      handlers.NewReviewHandlers(services.NewReviewService(store.Reviews, store.Appointments, dispatcher)),
		Webhooks:     handlers.NewWebhookHandlers(services.NewWebhookService(store.Webhooks, store.Deliveries, dispatcher)),
		Finance: handlers.NewFinanceHandlers(
			services.NewCommissionService(store.Commissions, cacheSvc, logger),
			services.NewFinanceService(store.Transactions, cacheSvc, logger),
		),
		Reports: handlers.NewReportHandlers(
			services.NewMetricsService(store, cacheSvc, logger),
			services.NewReportService(store, storage, logger),
		),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := handlers.NewRouter(h, handlers.RouterConfig{
		Logger: logger,
		Auth: middleware.AuthConfig{
			JWTSecret: cfg.Auth.JWTSecret,
			JWKS:      jwks,
			APIKeys:   apiKeySvc,
			Profiles:  store.Profiles,
		},
		RateLimiter: middleware.NewRateLimiter(sharedCache, cfg.RateLimit.PerMinute, logger),
		Usage:       cacheSvc,
		Metrics:     middleware.NewHTTPMetrics(registry),
	})

	scheduler, err := background.NewJobScheduler(dispatcher, store.Appointments, dispatcher, &background.UsageFlush{
		Counters:   cacheSvc,
		Businesses: store.Businesses,
		Usage:      store.Usage,
	}, logger)
	if err != nil {
		return fmt.Errorf("create job scheduler: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("job scheduler shutdown", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gestly api starting", zap.String("version", version), zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
