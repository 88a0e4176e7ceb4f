package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/storefront/internal/adapter/events"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/identity"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/observability"
	"github.com/rl1809/storefront/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		return err
	}

	// Initialize database
	db, err := storage.Open(ctx, cfg.DBDriver, cfg.DBDSN, storage.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database", zap.String("driver", cfg.DBDriver))

	if err := storage.Migrate(db); err != nil {
		return err
	}

	catalog := storage.NewCatalogStore(db)
	if cfg.SeedFile != "" {
		n, err := storage.Seed(ctx, catalog, cfg.SeedFile)
		if err != nil {
			return err
		}
		logger.Info("seeded catalog", zap.Int("products", n), zap.String("file", cfg.SeedFile))
	}

	checks := map[string]handler.HealthCheck{"database": db.Ping}

	// Initialize Redis. Without it duplicate submissions are not detected.
	var idempotency port.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		defer rdb.Close()

		cache := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
		if err := cache.Ping(ctx); err != nil {
			return err
		}
		idempotency = cache
		checks["redis"] = cache.Ping
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency keys are ignored")
	}

	// Order events
	var sink events.Sink = events.NewLogSink(logger)
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, events.BreakerSettings{}, logger)
		logger.Info("publishing order events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	metrics := observability.NewMetrics()
	dispatcher := events.NewDispatcher(sink, cfg.EventWorkers, cfg.EventQueueSize, logger, metrics)
	dispatcher.Start()

	// Services
	carts := service.NewCartService(storage.NewCartStore(db), catalog, logger)
	checkout := service.NewCheckoutService(storage.NewCheckoutStore(db), idempotency, dispatcher, logger)
	orders := service.NewOrderService(storage.NewOrderStore(db), dispatcher, logger)
	resolver := identity.NewJWTResolver([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AdminSubjects, storage.NewCustomerStore(db))

	// gRPC server
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			handler.LoggingInterceptor(logger, metrics),
			handler.AuthInterceptor(resolver),
		),
	)
	handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(checkout, orders, metrics))
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(carts, checkout, orders, metrics, logger, checks)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(httpHandler.Router(resolver, cfg.RequestTimeout), "storefront"),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		healthServer.Shutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown", zap.Error(err))
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		// Drain queued events before the sink goes away
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Error("event dispatcher shutdown", zap.Error(err))
		}
		logger.Info("event dispatcher stopped")

		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	logger.Info("connections closed")
	return nil
}
