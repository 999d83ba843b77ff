package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"harilog/internal/activity"
	"harilog/internal/broadcast"
	"harilog/internal/config"
	"harilog/internal/constants"
	"harilog/internal/directory"
	"harilog/internal/logger"
	"harilog/internal/notifications"
	"harilog/internal/rules"
	"harilog/internal/settings"
	"harilog/internal/telegram"
	"harilog/internal/throttle"
	"harilog/pkg/bootstrap"
	"harilog/pkg/cel"
	"harilog/pkg/health"
	"harilog/pkg/metrics"
	"harilog/pkg/middleware"
	"harilog/pkg/ratelimit"
)

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	ruleStore   *rules.Store
	server      *http.Server
	router      *gin.Engine
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if a.config.Database.RunMigrations {
		if err := bootstrap.RunMigrations(a.db, a.config.Database.MigrationsPath, a.logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeoutSeconds) * time.Second,
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.db.Close()
		return err
	}
	a.redisClient = redisClient

	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.logger))

	settingsRepo := settings.NewRepository(a.db)
	a.ruleStore = rules.NewStore(settingsRepo, a.config.Automation, a.logger)

	throttleLimiter := throttle.NewLimiter(throttle.NewRepository(a.redisClient), a.logger)

	roleResolver, err := directory.DetectResolver(ctx, a.db)
	if err != nil {
		return fmt.Errorf("failed to detect role schema: %w", err)
	}
	a.logger.InfowCtx(ctx, "Role schema detected", "resolver", roleResolver.Name())

	directoryService := directory.NewService(directory.NewRepository(a.db, roleResolver), a.logger)

	notificationRepo := notifications.NewRepository(a.db)

	var telegramClient telegram.Client
	if a.config.Telegram.BotToken != "" {
		client, err := telegram.NewClient(a.config.Telegram, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram client: %w", err)
		}
		telegramClient = client
	} else {
		a.logger.InfowCtx(ctx, "Telegram bot token not configured, telegram channel disabled")
		telegramClient = telegram.NewDisabled()
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to initialize condition evaluator: %w", err)
	}

	notifier := activity.NewNotifier(
		a.ruleStore,
		throttleLimiter,
		directoryService,
		notificationRepo,
		telegramClient,
		evaluator,
		a.logger,
	)

	// The activity hook runs on every routed request after the response
	// is written.
	router.Use(middleware.ActivityMiddleware(notifier, nil))

	notificationHandler := notifications.NewHandler(notificationRepo, a.logger)
	notificationHandler.RegisterRoutes(router)

	broadcastService := broadcast.NewService(
		directoryService,
		notificationRepo,
		telegramClient,
		a.logger,
		a.config.Broadcast.MaxConcurrency,
	)
	broadcastHandler := broadcast.NewHandler(broadcastService, a.logger)

	var broadcastMiddleware []gin.HandlerFunc
	if a.config.Broadcast.RateLimit.Enabled {
		rateLimitConfig := ratelimit.DefaultConfig()
		rateLimitConfig.RPS = a.config.Broadcast.RateLimit.RPS
		rateLimitConfig.Burst = a.config.Broadcast.RateLimit.Burst
		if a.config.Broadcast.RateLimit.CleanupInterval > 0 {
			rateLimitConfig.CleanupInterval = time.Duration(a.config.Broadcast.RateLimit.CleanupInterval) * time.Second
		}
		if a.config.Broadcast.RateLimit.MaxAge > 0 {
			rateLimitConfig.MaxAge = time.Duration(a.config.Broadcast.RateLimit.MaxAge) * time.Second
		}
		broadcastMiddleware = append(broadcastMiddleware, ratelimit.Middleware(rateLimitConfig))
		a.logger.InfowCtx(ctx, "Broadcast rate limiting enabled",
			"rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}
	broadcastHandler.RegisterRoutes(router, broadcastMiddleware...)

	metrics.RegisterActivityMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	healthRegistry.Register(health.NewRedisChecker(a.redisClient))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) Run(ctx context.Context) error {
	reloaderCtx, cancelReloader := context.WithCancel(ctx)
	defer cancelReloader()

	go func() {
		if err := a.ruleStore.StartReloader(reloaderCtx); err != nil && err != context.Canceled {
			a.logger.ErrorwCtx(reloaderCtx, "Rule reloader stopped", "error", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	errs = append(errs, a.dbConnector.ShutdownDatabases(a.redisClient, a.db)...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
