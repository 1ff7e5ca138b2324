package cache

import (
	"context"
	"testing"
)

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("nil ping: %v", err)
	}
	var out map[string]string
	if c.GetJSON(context.Background(), "k", &out) {
		t.Error("nil cache reported a hit")
	}
	c.SetJSON(context.Background(), "k", map[string]string{"a": "b"})
	c.Invalidate(context.Background(), "t1", "history")
	if err := c.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}

func TestNew_EmptyAddrDisables(t *testing.T) {
	if c := New("", 0); c != nil {
		t.Error("empty addr should disable caching")
	}
}

func TestKey(t *testing.T) {
	got := Key("t1", "history", "p1", "n20")
	want := "coachdesk:t1:history:p1:n20"
	if got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}
