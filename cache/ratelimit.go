package cache

import (
	"context"
	"time"

	"mixvault/config"
	"mixvault/logger"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// Rate-limited action classes. Each class is tracked under its own counter
// key; classes never share a window.
const (
	ActionUpload = "upload"
	ActionAPI    = "api"
)

// RateLimitResult reports the outcome of a single rate-limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, at least 1.
func (r RateLimitResult) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// windowState is the persisted fixed-window counter.
type windowState struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"` // unix seconds
}

// RateLimiter is a fixed-window counter over Redis. On any storage error the
// limiter fails open: the request is allowed and the full quota reported.
type RateLimiter struct {
	rdb Cmdable
	now func() time.Time
}

// NewRateLimiter creates a rate limiter over the given Redis connection.
func NewRateLimiter(rdb Cmdable) *RateLimiter {
	return &RateLimiter{rdb: rdb, now: time.Now}
}

// limitFor maps an action class to its quota and window length.
func limitFor(action string) (max int, window time.Duration) {
	switch action {
	case ActionUpload:
		return config.UploadRateLimit, config.UploadRateWindow
	default:
		return config.APIRateLimit, config.APIRateWindow
	}
}

// Check consumes one unit of quota for the given action and user. Denied
// calls leave the stored count unchanged so repeated rejections cannot extend
// or corrupt the window.
func (l *RateLimiter) Check(ctx context.Context, action string, userID int64) RateLimitResult {
	max, window := limitFor(action)
	now := l.now()
	key := RateLimitKey(action, userID)

	openResult := RateLimitResult{Allowed: true, Remaining: max, ResetAt: now.Add(window)}

	var state windowState
	raw, err := l.rdb.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// No window yet.
	case err != nil:
		logger.Warn("rate limit read failed, allowing request",
			logger.String("key", key), logger.ErrorField(err))
		return openResult
	default:
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			logger.Warn("rate limit state undecodable, allowing request",
				logger.String("key", key), logger.ErrorField(err))
			return openResult
		}
	}

	resetAt := time.Unix(state.ResetAt, 0)
	if state.Count == 0 || now.After(resetAt) {
		// Start a fresh window.
		state = windowState{Count: 1, ResetAt: now.Add(window).Unix()}
		if !l.persist(ctx, key, state, window) {
			return openResult
		}
		return RateLimitResult{Allowed: true, Remaining: max - 1, ResetAt: time.Unix(state.ResetAt, 0)}
	}

	if state.Count >= max {
		return RateLimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	state.Count++
	// TTL shrinks to the remaining window so the counter expires with it.
	if !l.persist(ctx, key, state, resetAt.Sub(now)) {
		return openResult
	}
	return RateLimitResult{Allowed: true, Remaining: max - state.Count, ResetAt: resetAt}
}

// persist writes the window state; returns false on storage failure.
func (l *RateLimiter) persist(ctx context.Context, key string, state windowState, ttl time.Duration) bool {
	data, err := json.Marshal(state)
	if err != nil {
		logger.Warn("rate limit marshal failed", logger.String("key", key), logger.ErrorField(err))
		return false
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := l.rdb.Set(ctx, key, string(data), ttl).Err(); err != nil {
		logger.Warn("rate limit write failed, allowing request",
			logger.String("key", key), logger.ErrorField(err))
		return false
	}
	return true
}
