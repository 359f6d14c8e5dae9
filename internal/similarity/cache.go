package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultCacheTTL is how long a similarity signal stays cached.
	DefaultCacheTTL = 24 * time.Hour

	cacheKeyPrefix = "jobsense:similarity:"
	pingTimeout    = 2 * time.Second
)

// Cache stores JSON values by key.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a Cache backed by Redis. When Redis cannot be reached at start-up
// every call is a miss and writes are dropped.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, bypassing similarity cache",
			zap.String("addr", opts.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return &RedisCache{logger: logger}
	}

	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *RedisCache) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable, bypassing similarity cache", zap.Error(err))
	}
}

// GetJSON loads key into out and reports whether it was found.
func (r *RedisCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}

	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key.
func (r *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisCache) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

// Cached wraps a provider with a cache. Cache errors never fail a lookup.
type Cached struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached creates a caching provider.
func NewCached(next Provider, cache Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Score returns the cached signal for req or asks the wrapped provider.
func (c *Cached) Score(ctx context.Context, req Request) (*Signal, error) {
	key := CacheKey(req)

	var cached Signal
	found, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Debug("similarity cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		c.logger.Debug("similarity cache hit", zap.String("key", key))
		return &cached, nil
	}

	signal, err := c.next.Score(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := signal.Validate(); err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, signal, c.ttl); err != nil {
		c.logger.Debug("similarity cache write failed", zap.String("key", key), zap.Error(err))
	}

	return signal, nil
}

// CacheKey derives a stable key from both texts.
func CacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.ResumeText + "\x00" + req.JobDescription))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, sum[:])
}
