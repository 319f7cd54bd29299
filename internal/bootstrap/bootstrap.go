// Package bootstrap builds the secondary adapters shared by the api and
// ingest commands from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/cache"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/source"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// OpenPool connects to Postgres and verifies the connection. It returns
// nil without error when no database is configured.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// OpenCache connects the raw export cache. It returns nil when Redis is
// not configured.
func OpenCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *cache.RedisCache {
	if !cfg.Enabled() {
		return nil
	}
	return cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Key:      cfg.Key,
		TTL:      cfg.TTL,
	}, logger)
}

// NewSource selects the raw incident source named by SOURCE_KIND. The
// postgres kind needs a pool.
func NewSource(cfg config.SourceConfig, pool *pgxpool.Pool, logger *slog.Logger) (ports.RawIncidentSource, error) {
	switch cfg.Kind {
	case config.SourceFile:
		return source.NewFileSource(cfg.Path), nil
	case config.SourceHTTP:
		return source.NewHTTPSource(source.HTTPConfig{
			URL:         cfg.URL,
			Timeout:     cfg.HTTPTimeout,
			BearerToken: cfg.Token,
		}, logger), nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("source %q needs DATABASE_URL", cfg.Kind)
		}
		return postgres.NewIncidentRepository(pool, postgres.NewTransactionManager(pool)), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
