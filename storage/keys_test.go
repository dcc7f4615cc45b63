package storage

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	pattern := regexp.MustCompile(`^mixes/42/\d+-[0-9a-f]{8}\.mp3$`)

	t.Run("shape", func(t *testing.T) {
		key := ObjectKey(PrefixMixes, 42, ".mp3")
		if !pattern.MatchString(key) {
			t.Errorf("key %q does not match expected shape", key)
		}
	})

	t.Run("extension normalized", func(t *testing.T) {
		key := ObjectKey(PrefixCovers, 1, "JPG")
		if !strings.HasSuffix(key, ".jpg") {
			t.Errorf("key %q should end in .jpg", key)
		}
	})

	t.Run("empty extension falls back", func(t *testing.T) {
		key := ObjectKey(PrefixMixes, 1, "")
		if !strings.HasSuffix(key, ".bin") {
			t.Errorf("key %q should end in .bin", key)
		}
	})

	t.Run("keys are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key := ObjectKey(PrefixMixes, 1, "mp3")
			if seen[key] {
				t.Fatalf("duplicate key %q", key)
			}
			seen[key] = true
		}
	})
}

func TestRewriteEndpoint(t *testing.T) {
	signed := "http://minio.internal:9000/bucket/mixes/1/123-abcd1234.mp3?X-Amz-Signature=sig"

	t.Run("host only", func(t *testing.T) {
		u, _ := url.Parse(signed)
		got := rewriteEndpoint(u, "media.example.com")
		if !strings.HasPrefix(got, "http://media.example.com/bucket/") {
			t.Errorf("got %q", got)
		}
		if !strings.Contains(got, "X-Amz-Signature=sig") {
			t.Error("query string must be preserved")
		}
	})

	t.Run("full public URL", func(t *testing.T) {
		u, _ := url.Parse(signed)
		got := rewriteEndpoint(u, "https://media.example.com")
		if !strings.HasPrefix(got, "https://media.example.com/bucket/") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no public endpoint configured", func(t *testing.T) {
		u, _ := url.Parse(signed)
		if got := rewriteEndpoint(u, ""); got != signed {
			t.Errorf("got %q, want unchanged", got)
		}
	})
}
