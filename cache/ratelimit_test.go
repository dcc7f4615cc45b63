package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"mixvault/config"

	"github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory stand-in for the parts of go-redis the cache
// layer touches. Setting failGet/failSet simulates a storage outage.
type fakeRedis struct {
	data    map[string]string
	failGet error
	failSet error
	failDel error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.failDel != nil {
		return redis.NewIntResult(0, f.failDel)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if f.failGet != nil {
		return redis.NewScanCmdResult(nil, 0, f.failGet)
	}
	var keys []string
	for k := range f.data {
		if globMatch(match, k) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

// globMatch supports only trailing-star patterns, which is all the keyspace uses.
func globMatch(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	return pattern == key
}

func newTestLimiter(f *fakeRedis, now time.Time) *RateLimiter {
	return &RateLimiter{rdb: f, now: func() time.Time { return now }}
}

func TestRateLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("quota decreases strictly then denies", func(t *testing.T) {
		f := newFakeRedis()
		l := newTestLimiter(f, base)

		wantRemaining := []int{4, 3, 2, 1, 0}
		var firstReset time.Time
		for i, want := range wantRemaining {
			res := l.Check(ctx, ActionUpload, 7)
			if !res.Allowed {
				t.Fatalf("check %d: expected allowed", i+1)
			}
			if res.Remaining != want {
				t.Errorf("check %d: remaining = %d, want %d", i+1, res.Remaining, want)
			}
			if i == 0 {
				firstReset = res.ResetAt
			} else if !res.ResetAt.Equal(firstReset) {
				t.Errorf("check %d: resetAt drifted from %v to %v", i+1, firstReset, res.ResetAt)
			}
		}

		res := l.Check(ctx, ActionUpload, 7)
		if res.Allowed {
			t.Fatal("sixth check should be denied")
		}
		if res.Remaining != 0 {
			t.Errorf("denied remaining = %d, want 0", res.Remaining)
		}
		if !res.ResetAt.Equal(firstReset) {
			t.Errorf("denied resetAt = %v, want unchanged %v", res.ResetAt, firstReset)
		}
	})

	t.Run("denied calls leave count unchanged", func(t *testing.T) {
		f := newFakeRedis()
		l := newTestLimiter(f, base)
		for i := 0; i < config.UploadRateLimit; i++ {
			l.Check(ctx, ActionUpload, 1)
		}
		stored := f.data[RateLimitKey(ActionUpload, 1)]
		for i := 0; i < 3; i++ {
			if res := l.Check(ctx, ActionUpload, 1); res.Allowed {
				t.Fatal("expected denial")
			}
		}
		if f.data[RateLimitKey(ActionUpload, 1)] != stored {
			t.Error("denied checks mutated stored window state")
		}
	})

	t.Run("window resets after expiry boundary", func(t *testing.T) {
		f := newFakeRedis()
		l := newTestLimiter(f, base)
		for i := 0; i < config.UploadRateLimit+1; i++ {
			l.Check(ctx, ActionUpload, 2)
		}
		l.now = func() time.Time { return base.Add(config.UploadRateWindow + time.Second) }
		res := l.Check(ctx, ActionUpload, 2)
		if !res.Allowed {
			t.Fatal("expected fresh window to allow")
		}
		if res.Remaining != config.UploadRateLimit-1 {
			t.Errorf("remaining = %d, want %d", res.Remaining, config.UploadRateLimit-1)
		}
	})

	t.Run("action classes are tracked independently", func(t *testing.T) {
		f := newFakeRedis()
		l := newTestLimiter(f, base)
		for i := 0; i < config.UploadRateLimit+1; i++ {
			l.Check(ctx, ActionUpload, 3)
		}
		if res := l.Check(ctx, ActionAPI, 3); !res.Allowed {
			t.Error("api class should be unaffected by exhausted upload class")
		}
		if res := l.Check(ctx, ActionUpload, 4); !res.Allowed {
			t.Error("another user's upload quota should be unaffected")
		}
	})

	t.Run("fails open on read error", func(t *testing.T) {
		f := newFakeRedis()
		f.failGet = errors.New("connection refused")
		l := newTestLimiter(f, base)
		res := l.Check(ctx, ActionUpload, 5)
		if !res.Allowed {
			t.Fatal("storage error must not block the request")
		}
		if res.Remaining != config.UploadRateLimit {
			t.Errorf("remaining = %d, want full quota %d", res.Remaining, config.UploadRateLimit)
		}
	})

	t.Run("fails open on write error", func(t *testing.T) {
		f := newFakeRedis()
		f.failSet = errors.New("readonly replica")
		l := newTestLimiter(f, base)
		res := l.Check(ctx, ActionUpload, 6)
		if !res.Allowed {
			t.Fatal("storage error must not block the request")
		}
		if res.Remaining != config.UploadRateLimit {
			t.Errorf("remaining = %d, want full quota %d", res.Remaining, config.UploadRateLimit)
		}
	})

	t.Run("corrupt state fails open", func(t *testing.T) {
		f := newFakeRedis()
		f.data[RateLimitKey(ActionUpload, 8)] = "{not json"
		l := newTestLimiter(f, base)
		res := l.Check(ctx, ActionUpload, 8)
		if !res.Allowed || res.Remaining != config.UploadRateLimit {
			t.Errorf("corrupt state should fail open, got %+v", res)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := RateLimitResult{ResetAt: now.Add(90 * time.Second)}
	if got := res.RetryAfter(now); got != 90 {
		t.Errorf("RetryAfter = %d, want 90", got)
	}
	past := RateLimitResult{ResetAt: now.Add(-time.Second)}
	if got := past.RetryAfter(now); got != 1 {
		t.Errorf("RetryAfter for past reset = %d, want 1", got)
	}
}
