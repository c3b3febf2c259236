// Package app wires the storefront service together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/naveen554/jaggaer-storefront/internal/catalog"
	"github.com/naveen554/jaggaer-storefront/internal/cartstore"
	"github.com/naveen554/jaggaer-storefront/internal/checkout"
	checkoutpg "github.com/naveen554/jaggaer-storefront/internal/checkout/repository/postgres"
	"github.com/naveen554/jaggaer-storefront/internal/config"
	"github.com/naveen554/jaggaer-storefront/internal/core"
	"github.com/naveen554/jaggaer-storefront/internal/event"
	handlerhttp "github.com/naveen554/jaggaer-storefront/internal/handler/http"
	"github.com/naveen554/jaggaer-storefront/migrations"
	"github.com/naveen554/jaggaer-storefront/pkg/database"
	"github.com/naveen554/jaggaer-storefront/pkg/health"
	"github.com/naveen554/jaggaer-storefront/pkg/httpclient"
	"github.com/naveen554/jaggaer-storefront/pkg/kafka"
	"github.com/naveen554/jaggaer-storefront/pkg/tracing"
)

// App holds the assembled storefront service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	server          *http.Server
	redisClient     *redis.Client
	pgPool          *pgxpool.Pool
	producer        *kafka.Producer
	tracingShutdown func(context.Context) error
}

// New assembles the service from configuration. It connects to Redis and
// PostgreSQL eagerly; Kafka and the downstream services are dialed lazily.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRate:   cfg.Tracing.SampleRatio,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	pgPool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pgPool, migrations.FS, logger); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
	events := event.NewPublisher(producer,
		cfg.Kafka.CartRefreshedTopic,
		cfg.Kafka.PurchaseCompletedTopic,
		logger,
	)

	catalogHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.Catalog.Timeout,
			MaxRetries:      3,
			RetryWaitMin:    time.Second,
			RetryWaitMax:    5 * time.Second,
			MaxConnsPerHost: 100,
		}),
		httpclient.DefaultCircuitBreakerConfig("catalog-service"),
		logger,
	)
	cartHTTP := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:         cfg.Cart.Timeout,
			MaxRetries:      3,
			RetryWaitMin:    time.Second,
			RetryWaitMax:    5 * time.Second,
			MaxConnsPerHost: 100,
		}),
		httpclient.DefaultCircuitBreakerConfig("cart-service"),
		logger,
	)

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, catalogHTTP)
	store := cartstore.NewRemoteStore(cfg.Cart.BaseURL, cartHTTP)
	cache := cartstore.NewSnapshotCache(redisClient, cfg.Redis.TTL, logger)
	coordinator := core.New(store, cache, events, logger)

	purchases := checkoutpg.NewPurchaseRepository(pgPool)
	sequencer := checkout.NewSequencer(coordinator, purchases, events, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pgPool.Ping(ctx)
	})
	healthHandler.Register("kafka", producer.Ping)

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		ServiceName: cfg.ServiceName,
		Logger:      logger,
		Catalog:     handlerhttp.NewCatalogHandler(catalogClient, logger),
		Cart:        handlerhttp.NewCartHandler(coordinator, logger),
		Checkout:    handlerhttp.NewCheckoutHandler(sequencer, purchases, logger),
		Health:      healthHandler,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		server:          server,
		redisClient:     redisClient,
		pgPool:          pgPool,
		producer:        producer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("storefront listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and closes all connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
	}
	if err := a.redisClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis client: %w", err))
	}
	a.pgPool.Close()
	if err := a.tracingShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}

	return errors.Join(errs...)
}
