package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClientFailOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("get returns empty on miss", func(t *testing.T) {
		c := &Client{rdb: newFakeRedis()}
		if got := c.Get(ctx, "absent"); got != "" {
			t.Errorf("Get = %q, want empty", got)
		}
	})

	t.Run("get returns empty on storage error", func(t *testing.T) {
		f := newFakeRedis()
		f.failGet = errors.New("connection reset")
		c := &Client{rdb: f}
		if got := c.Get(ctx, "any"); got != "" {
			t.Errorf("Get = %q, want empty", got)
		}
	})

	t.Run("set then get round trips", func(t *testing.T) {
		c := &Client{rdb: newFakeRedis()}
		c.Set(ctx, "k", "v", time.Minute)
		if got := c.Get(ctx, "k"); got != "v" {
			t.Errorf("Get = %q, want v", got)
		}
	})

	t.Run("set error is swallowed", func(t *testing.T) {
		f := newFakeRedis()
		f.failSet = errors.New("oom")
		c := &Client{rdb: f}
		c.Set(ctx, "k", "v", time.Minute) // must not panic or propagate
	})

	t.Run("delete error is swallowed", func(t *testing.T) {
		f := newFakeRedis()
		f.failDel = errors.New("down")
		c := &Client{rdb: f}
		c.Delete(ctx, "k")
	})
}

func TestClientJSON(t *testing.T) {
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("round trip", func(t *testing.T) {
		c := &Client{rdb: newFakeRedis()}
		c.SetJSON(ctx, "p", payload{Name: "feed", Count: 3}, time.Minute)
		var got payload
		if !c.GetJSON(ctx, "p", &got) {
			t.Fatal("expected cache hit")
		}
		if got.Name != "feed" || got.Count != 3 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("undecodable entry is dropped", func(t *testing.T) {
		f := newFakeRedis()
		f.data["p"] = "{broken"
		c := &Client{rdb: f}
		var got payload
		if c.GetJSON(ctx, "p", &got) {
			t.Fatal("expected miss for corrupt entry")
		}
		if _, ok := f.data["p"]; ok {
			t.Error("corrupt entry should have been deleted")
		}
	})
}

func TestDeletePattern(t *testing.T) {
	ctx := context.Background()
	f := newFakeRedis()
	f.data[MixListKey(1, false)] = "a"
	f.data[MixListKey(1, true)] = "b"
	f.data[MixKey(9)] = "c"

	c := &Client{rdb: f}
	c.DeletePattern(ctx, MixListPattern)

	if _, ok := f.data[MixListKey(1, false)]; ok {
		t.Error("authenticated feed page should be invalidated")
	}
	if _, ok := f.data[MixListKey(1, true)]; ok {
		t.Error("anonymous feed page should be invalidated")
	}
	if _, ok := f.data[MixKey(9)]; !ok {
		t.Error("single-mix key must survive list invalidation")
	}
}
