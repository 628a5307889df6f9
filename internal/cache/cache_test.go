package cache

import (
	"testing"
	"time"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGetSetExpiry(t *testing.T) {
	ck := &clock{t: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}
	c := New[int](Options{TTL: 15 * time.Minute, Now: ck.now})

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Set("a", 42)
	if v, ok := c.Get("a"); !ok || v != 42 {
		t.Fatalf("Get = (%d, %v), want (42, true)", v, ok)
	}

	ck.advance(14 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired early")
	}
	ck.advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry served at its expiry instant")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry not dropped on read")
	}
}

func TestSetRefreshesExpiry(t *testing.T) {
	ck := &clock{t: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}
	c := New[string](Options{TTL: 15 * time.Minute, Now: ck.now})

	c.Set("a", "first")
	ck.advance(10 * time.Minute)
	c.Set("a", "second")
	ck.advance(10 * time.Minute)
	if v, ok := c.Get("a"); !ok || v != "second" {
		t.Fatalf("Get = (%q, %v), want the refreshed entry", v, ok)
	}
}

func TestInvalidateAndPurge(t *testing.T) {
	c := New[int](Options{TTL: time.Minute})
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("invalidated entry still served")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("unrelated entry dropped")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatal("purge left entries behind")
	}
}
