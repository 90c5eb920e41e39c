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

	"go.uber.org/zap"

	"github.com/forkcast/nutrition/config"
	httpDelivery "github.com/forkcast/nutrition/internal/delivery/http"
	"github.com/forkcast/nutrition/internal/domain"
	"github.com/forkcast/nutrition/internal/infrastructure/cache"
	"github.com/forkcast/nutrition/internal/infrastructure/logger"
	"github.com/forkcast/nutrition/internal/infrastructure/tracing"
	"github.com/forkcast/nutrition/internal/infrastructure/usda"
	"github.com/forkcast/nutrition/internal/usecase"
)

const version = "1.0.0"

// closableCache is a cache backend that owns a connection or a janitor
type closableCache interface {
	domain.CacheRepository
	Close() error
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting forkcast nutrition",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "forkcast-nutrition",
		Version:     version,
		SampleRatio: cfg.Tracing.SampleRatio,
		PrettyPrint: cfg.Server.Environment == "development",
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	store, err := newCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatal("failed to initialize cache", zap.String("type", cfg.Cache.Type), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("cache close failed", zap.Error(err))
		}
	}()

	data, err := usecase.LoadReferenceData(cfg.Nutrition.ReferenceDataPath)
	if err != nil {
		log.Fatal("failed to load reference data", zap.String("path", cfg.Nutrition.ReferenceDataPath), zap.Error(err))
	}

	usdaClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL,
		usda.WithPageSize(cfg.USDA.PageSize),
		usda.WithTimeout(cfg.USDA.Timeout),
		usda.WithRequestsPerHour(cfg.USDA.RequestsPerHour),
		usda.WithLogger(log.Named("usda")),
	)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" || cfg.Nutrition.EnableDebugLogging {
		usdaClient.SetDebug(true)
		log.Info("usda client debug mode enabled")
	}

	nutritionService := usecase.NewNutritionService(
		store,
		usdaClient,
		data,
		log.Named("nutrition"),
		usecase.NutritionServiceConfig{
			CacheTTL:       cfg.Cache.TTL,
			MaxConcurrency: cfg.Nutrition.MaxConcurrency,
			LookupTimeout:  cfg.Nutrition.LookupTimeout,
			Match: usecase.MatchConfig{
				EnableDebugLogging: cfg.Nutrition.EnableDebugLogging,
			},
		},
	)

	log.Info("pipeline configured",
		zap.Int("max_concurrency", cfg.Nutrition.MaxConcurrency),
		zap.Duration("lookup_timeout", cfg.Nutrition.LookupTimeout),
		zap.Bool("debug", cfg.Nutrition.EnableDebugLogging),
	)

	handler := httpDelivery.NewHandler(nutritionService, log.Named("http"), cfg.Server.RequestTimeout)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// newCache builds the configured cache backend
func newCache(ctx context.Context, cfg config.CacheConfig) (closableCache, error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, "forkcast:")
		if err != nil {
			return nil, err
		}
		return c, nil
	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.SQLitePath, 0)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return cache.NewMemoryCache(0), nil
	}
}
