// Package app wires configuration, storage, transports and handlers into a
// runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mjheves/account-service/internal/auth"
	"github.com/mjheves/account-service/internal/config"
	"github.com/mjheves/account-service/internal/event"
	handlerhttp "github.com/mjheves/account-service/internal/handler/http"
	"github.com/mjheves/account-service/internal/notifier"
	postgresrepo "github.com/mjheves/account-service/internal/repository/postgres"
	redisrepo "github.com/mjheves/account-service/internal/repository/redis"
	"github.com/mjheves/account-service/internal/service"
	"github.com/mjheves/account-service/internal/storage"
	"github.com/mjheves/account-service/migrations"
	"github.com/mjheves/account-service/pkg/database"
	"github.com/mjheves/account-service/pkg/health"
	pkgkafka "github.com/mjheves/account-service/pkg/kafka"
	"github.com/mjheves/account-service/pkg/logger"
	"github.com/mjheves/account-service/pkg/tracing"
)

// App holds the assembled service and its owned resources.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool        *pgxpool.Pool
	redisClient *goredis.Client
	producer    *pkgkafka.Producer
	server      *http.Server

	shutdownTracer func(context.Context) error
}

// New assembles the service from configuration. Resources acquired before a
// failure are released, so a half-built App never leaks connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.ServiceName, cfg.LogLevel)

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampleRate,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, log)
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	database.RegisterPoolMetrics(pool, cfg.ServiceName)

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		pool.Close()
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)

	blobStore, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	userRepo := postgresrepo.NewUserRepository(pool)
	blacklist := redisrepo.NewTokenBlacklist(redisClient)

	var sender notifier.Sender
	if cfg.IsDevelopment() && cfg.SMTP.Host == "localhost" {
		// No relay configured in development, codes go to the log.
		sender = notifier.NewLogSender(log)
	} else {
		sender = notifier.NewSMTPSender(cfg.SMTP)
	}

	users := service.NewUserService(
		userRepo,
		blacklist,
		jwtMgr,
		sender,
		blobStore,
		event.NewProducer(kafkaProducer, log),
		log,
	)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		ServiceName:       cfg.ServiceName,
		AuthHandler:       handlerhttp.NewAuthHandler(users, log),
		UserHandler:       handlerhttp.NewUserHandler(users, log),
		Health:            healthHandler,
		JWTManager:        jwtMgr,
		Revocation:        blacklist.IsRevoked,
		CORS:              handlerhttp.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		Logger:            log,
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
		cfg:            cfg,
		logger:         log,
		pool:           pool,
		redisClient:    redisClient,
		producer:       kafkaProducer,
		server:         server,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.server.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests, then releases resources in reverse
// dependency order.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.shutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	if err := a.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka close: %w", err))
	}
	if err := a.redisClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close: %w", err))
	}
	a.pool.Close()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.logger.Info("shutdown complete")
	return nil
}
