// Package app wires configuration, infrastructure and HTTP transport into a
// runnable server.
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

	"github.com/davybookzone/server/internal/auth"
	"github.com/davybookzone/server/internal/cache"
	"github.com/davybookzone/server/internal/config"
	"github.com/davybookzone/server/internal/event"
	"github.com/davybookzone/server/internal/gateway/cinetpay"
	httphandler "github.com/davybookzone/server/internal/handler/http"
	"github.com/davybookzone/server/internal/mailer"
	"github.com/davybookzone/server/internal/repository/postgres"
	"github.com/davybookzone/server/internal/service"
	"github.com/davybookzone/server/internal/storage/memory"
	"github.com/davybookzone/server/migrations"
	"github.com/davybookzone/server/pkg/database"
	"github.com/davybookzone/server/pkg/health"
	"github.com/davybookzone/server/pkg/kafka"
	"github.com/davybookzone/server/pkg/tracing"
)

const (
	serviceName     = "bookzone-server"
	catalogCacheTTL = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

// App holds the assembled server and the infrastructure handles it owns.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	server         *http.Server
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	kafkaProducer  *kafka.Producer
	tracerShutdown func(context.Context) error
}

// New builds the application from configuration. Postgres is required; Redis
// and Kafka are optional and their absence only degrades caching and events.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, serviceName)

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	}

	var kafkaProducer *kafka.Producer
	if cfg.KafkaEnabled {
		kafkaProducer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	}

	var notifier *mailer.Notifier
	if cfg.MailEnabled {
		notifier = mailer.NewNotifier(mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		}), logger)
	}

	users := postgres.NewUserRepository(pool)
	books := postgres.NewBookRepository(pool)
	purchases := postgres.NewPurchaseRepository(pool)
	messages := postgres.NewMessageRepository(pool)
	settings := postgres.NewSettingsRepository(pool)
	stats := postgres.NewStatsRepository(pool)

	gw := cinetpay.New(cinetpay.Config{
		APIURL:  cfg.CinetPayAPIURL,
		APIKey:  cfg.CinetPayAPIKey,
		SiteID:  cfg.CinetPaySiteID,
		Timeout: cfg.CinetPayTimeout,
	}, logger)

	events := event.NewProducer(kafkaProducer, logger)
	bookCache := cache.NewBookCache(redisClient, catalogCacheTTL, logger)
	fileStore := memory.New(fmt.Sprintf("http://localhost:%d", cfg.HTTPPort))
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessExpiry)

	userSvc := service.NewUserService(users, tokens, notifier, logger)
	bookSvc := service.NewBookService(books, fileStore, bookCache, events, logger)
	purchaseSvc := service.NewPurchaseService(purchases, books, gw, events, cfg.AppURL, logger)
	messageSvc := service.NewMessageService(messages, notifier, events, cfg.AdminEmail, logger)
	adminSvc := service.NewAdminService(users, stats, logger)
	settingsSvc := service.NewSettingsService(settings, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if kafkaProducer != nil {
		healthHandler.RegisterNonCritical("kafka", kafkaProducer.Ping)
	}

	router := httphandler.NewRouter(httphandler.RouterConfig{
		Auth:      httphandler.NewAuthHandler(userSvc, logger),
		Books:     httphandler.NewBookHandler(bookSvc, logger),
		Purchases: httphandler.NewPurchaseHandler(purchaseSvc, logger),
		Messages:  httphandler.NewMessageHandler(messageSvc, logger),
		Admin:     httphandler.NewAdminHandler(adminSvc, purchaseSvc, settingsSvc, logger),

		Health:        healthHandler,
		TokenValidate: tokens.Validate,
		Logger:        logger,

		ServiceName:        serviceName,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		TracingEnabled:     cfg.TracingEnabled,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		server:         server,
		pool:           pool,
		redisClient:    redisClient,
		kafkaProducer:  kafkaProducer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down in
// dependency order: drain HTTP, flush traces, close Kafka, close Redis,
// close the pool.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("shutdown http: %w", err)
	}
	if err := a.close(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}

	a.logger.Info("shutdown complete")
	return firstErr
}

func (a *App) close(ctx context.Context) error {
	var firstErr error

	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		firstErr = err
	}
	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.logger.Warn("kafka close failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.pool.Close()

	return firstErr
}
