package cache

import "fmt"

// Key builders for the shared Redis keyspace. Keep these in one place so the
// invalidation patterns below stay in sync with the keys being written.

// SettingsPublicKey caches the publicly exposed settings subset.
const SettingsPublicKey = "settings:public"

// MixListPattern matches every cached feed page, authenticated and anonymous.
const MixListPattern = "mixes:list:*"

// MixKey returns the cache key for a single mix.
func MixKey(mixID int64) string {
	return fmt.Sprintf("mix:%d", mixID)
}

// MixListKey returns the cache key for a feed page. Anonymous views see
// public-only results, so they are keyed separately from authenticated views.
func MixListKey(page int, publicOnly bool) string {
	if publicOnly {
		return fmt.Sprintf("mixes:list:page:%d:public", page)
	}
	return fmt.Sprintf("mixes:list:page:%d", page)
}

// StreamKey returns the cache key for a presigned stream URL.
func StreamKey(mixID int64, urlType string) string {
	return fmt.Sprintf("stream:%d:%s", mixID, urlType)
}

// WaveformKey returns the cache key for precomputed waveform peaks.
func WaveformKey(mixID int64) string {
	return fmt.Sprintf("waveform:%d", mixID)
}

// RateLimitKey returns the counter key for one action class and user. Distinct
// action classes never share a counter.
func RateLimitKey(action string, userID int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", action, userID)
}
