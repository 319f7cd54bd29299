package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the versioned key the raw export is stored under.
const DefaultKey = "incident-data:v1"

// Config holds the connection and entry settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	// TTL of zero keeps the entry until it is invalidated.
	TTL time.Duration
}

// RedisCache keeps the last raw export in a single Redis string.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.RawIncidentCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis. An unreachable server is logged, not
// fatal: the snapshot service falls back to the source on cache errors.
func NewRedisCache(ctx context.Context, cfg Config, logger *slog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisCache(ctx, client, cfg, logger)
}

func newRedisCache(ctx context.Context, client *redis.Client, cfg Config, logger *slog.Logger) *RedisCache {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	logger = logger.With("component", "redis_cache")

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", "addr", cfg.Addr, "error", err)
	} else {
		logger.Info("connected to redis", "addr", cfg.Addr, "key", cfg.Key)
	}

	return &RedisCache{client: client, key: cfg.Key, ttl: cfg.TTL, logger: logger}
}

// Get returns the cached export. A missing key is a miss, not an error.
// An entry that no longer decodes is dropped and reported as a miss.
func (c *RedisCache) Get(ctx context.Context) ([]domain.RawIncidentRecord, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", apperrors.ErrCacheUnavailable, c.key, err)
	}

	records, err := domain.DecodeRawIncidents(data)
	if err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", c.key, "error", err)
		if err := c.Invalidate(ctx); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return records, true, nil
}

// Set stores the export, replacing any previous entry.
func (c *RedisCache) Set(ctx context.Context, records []domain.RawIncidentRecord) error {
	if records == nil {
		records = []domain.RawIncidentRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode incident cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", apperrors.ErrCacheUnavailable, c.key, err)
	}
	c.logger.DebugContext(ctx, "incident cache written", "key", c.key, "records", len(records), "bytes", len(data))
	return nil
}

// Invalidate removes the entry. Removing a missing entry is not an error.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %w", apperrors.ErrCacheUnavailable, c.key, err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
