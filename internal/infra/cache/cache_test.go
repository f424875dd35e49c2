package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SetUntilCapsTTL(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.SetUntil("key1", "value1", time.Now().Add(-time.Second))
	if _, ok := c.Get("key1"); ok {
		t.Fatal("entry past its deadline must not be served")
	}

	c.SetUntil("key2", "value2", time.Now().Add(time.Hour))
	if _, ok := c.Get("key2"); !ok {
		t.Fatal("expected key2 within TTL")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := cache.New[string](0)
	defer c.Close()

	if c.Enabled() {
		t.Fatal("zero TTL cache should report disabled")
	}
	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); ok {
		t.Fatal("disabled cache must not store")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, ok := c.Get("key1"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_CloseTwice(t *testing.T) {
	c := cache.New[int](time.Minute)
	c.Close()
	c.Close()
}
