package cache

import (
	"context"
	"time"

	"mixvault/logger"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// DefaultTTL applies when Set is called with a zero TTL.
const DefaultTTL = 5 * time.Minute

// Cmdable is the subset of the go-redis client the cache layer uses.
// *redis.Client satisfies it; tests substitute a fake.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Client wraps Redis with fail-open semantics: a failing cache must never fail
// the surrounding business operation. Reads return "" both on a genuine miss
// and on an internal error; callers cannot distinguish the two.
type Client struct {
	rdb Cmdable
}

// NewClient creates a cache client over the given Redis connection.
func NewClient(rdb Cmdable) *Client {
	return &Client{rdb: rdb}
}

// Get returns the cached value for key, or "" on miss or error.
func (c *Client) Get(ctx context.Context, key string) string {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache get failed", logger.String("key", key), logger.ErrorField(err))
		}
		return ""
	}
	return val
}

// GetJSON unmarshals the cached value for key into dest. Returns false on
// miss, decode failure, or error.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	val := c.Get(ctx, key)
	if val == "" {
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		logger.Warn("cache entry undecodable, dropping", logger.String("key", key), logger.ErrorField(err))
		c.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores value under key with the given TTL. Errors are logged, never
// returned.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("cache set failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// SetJSON marshals value and stores it under key.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache marshal failed", logger.String("key", key), logger.ErrorField(err))
		return
	}
	c.Set(ctx, key, string(data), ttl)
}

// Delete removes key. Errors are logged, never returned.
func (c *Client) Delete(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		logger.Warn("cache delete failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// DeletePattern removes every key matching the glob pattern via SCAN, so large
// keyspaces don't block Redis the way KEYS would.
func (c *Client) DeletePattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			logger.Warn("cache scan failed", logger.String("pattern", pattern), logger.ErrorField(err))
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("cache pattern delete failed", logger.String("pattern", pattern), logger.ErrorField(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
