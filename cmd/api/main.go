package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/lorrc/service-desk-insights/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-insights/internal/auth"
	"github.com/lorrc/service-desk-insights/internal/bootstrap"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/core/analytics"
	"github.com/lorrc/service-desk-insights/internal/core/services"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return err
	}

	// 3. Initialize optional backends
	pool, err := bootstrap.OpenPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	healthDeps := map[string]httpAdapter.HealthChecker{}
	if pool != nil {
		defer pool.Close()
		healthDeps["database"] = pool
		logger.Info("database connection established")
	}

	rawCache := bootstrap.OpenCache(ctx, cfg.Redis, logger)
	if rawCache != nil {
		defer rawCache.Close()
		healthDeps["cache"] = rawCache
	}

	source, err := bootstrap.NewSource(cfg.Source, pool, logger)
	if err != nil {
		return err
	}

	// 4. Initialize Security, Metrics & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	appMetrics := metrics.New()
	hub := websocket.NewHub(websocket.HubConfig{
		PingInterval: cfg.WebSocket.PingInterval,
		PongWait:     cfg.WebSocket.PongWait,
	}, logger)

	// 5. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var adminRateLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		adminRateLimiter = mw.NewRateLimitByKey(cfg.RateLimit.AdminRPS, cfg.RateLimit.AdminBurst)
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	snapshotCfg := services.SnapshotServiceConfig{
		Source:      source,
		Broadcaster: hub,
		Observer:    appMetrics,
		Location:    loc,
		Logger:      logger,
	}
	if rawCache != nil {
		snapshotCfg.Cache = rawCache
	}
	if pool != nil {
		snapshotCfg.Runs = postgres.NewIngestRunRepository(pool)
	}
	snapshotService := services.NewSnapshotService(snapshotCfg)

	riskBasis := analytics.RiskAgeBasis(cfg.Analytics.RiskAgeBasis)
	analyticsService := services.NewAnalyticsService(snapshotService, riskBasis, nil)
	exportService := services.NewExportService(snapshotService, riskBasis, nil)

	errorHandler := httpAdapter.NewErrorHandler(logger)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		Tokens:         tokenManager,
		Health:         httpAdapter.NewHealthHandler(snapshotService, healthDeps, cfg.App.Version),
		Analytics:      httpAdapter.NewAnalyticsHandler(analyticsService, errorHandler, logger),
		Export:         httpAdapter.NewExportHandler(exportService, errorHandler, logger),
		Admin:          httpAdapter.NewAdminHandler(snapshotService, errorHandler, logger),
		WebSocket:      httpAdapter.NewWebSocketHandler(hub, tokenManager, snapshotService, cfg, logger),
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		RateLimiter:    generalRateLimiter,
		AdminLimiter:   adminRateLimiter,
		Metrics:        appMetrics,
		MetricsHandler: appMetrics.Handler(),
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		loadSnapshot(gctx, snapshotService, cfg.Analytics.LoadRetry, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		// Create shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadSnapshot builds the first snapshot, retrying every interval until
// it succeeds or ctx ends. Requests answer 503 until then.
func loadSnapshot(ctx context.Context, snapshots *services.SnapshotService, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	for {
		_, err := snapshots.Load(ctx)
		if err == nil {
			return
		}
		logger.Warn("initial snapshot load failed, retrying", "error", err, "retry_in", interval)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
