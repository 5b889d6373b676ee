package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gentext/gentext/statement"
)

// RedisCache caches generation results keyed by request content, so
// identical requests within the TTL skip the model backends entirely.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultRedisConfig returns local-development defaults with a one hour TTL.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "gentext:result:",
		TTL:    time.Hour,
	}
}

// NewRedisCache builds the cache. The connection is lazy; use Ping to
// verify it.
func NewRedisCache(config *RedisConfig) *RedisCache {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisCache{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// CacheKey derives the deterministic cache key for a request. Kind, both
// sentences and the count all participate, so any variation misses.
func CacheKey(req *statement.Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", req.Kind, req.PartialText, req.FullText, req.Count)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for req, or ok=false on a miss. Backend
// errors are reported but callers should treat them as misses.
func (c *RedisCache) Get(ctx context.Context, req *statement.Request) (*statement.Result, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+CacheKey(req)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}
	var res statement.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, false, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return &res, true, nil
}

// Set stores the result for req under the configured TTL. Empty results are
// not cached: a degraded outcome should be retried, not remembered.
func (c *RedisCache) Set(ctx context.Context, req *statement.Request, res *statement.Result) error {
	if res == nil || len(res.FalseSentences) == 0 {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+CacheKey(req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
