package cache_test

import (
	"testing"
	"time"

	"github.com/e5digital/leads-bfa-go/internal/domain"
	"github.com/e5digital/leads-bfa-go/internal/infra/cache"
	"github.com/e5digital/leads-bfa-go/internal/port"
)

var _ port.Cache[[]domain.Lead] = (*cache.InMemory[[]domain.Lead])(nil)
var _ port.Cache[bool] = (*cache.Redis[bool])(nil)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]domain.Lead](5 * time.Minute)
	defer c.Close()

	c.Set("leads:all", []domain.Lead{{ID: "a", Name: "Pet Feliz"}})
	val, ok := c.Get("leads:all")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(val) != 1 || val[0].Name != "Pet Feliz" {
		t.Errorf("unexpected cached list: %+v", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[bool](5 * time.Minute)
	defer c.Close()

	if revoked, ok := c.Get("session:revoked:x"); ok || revoked {
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

func TestCache_CleanupEvicts(t *testing.T) {
	c := cache.New[string](20 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	if n := c.Len(); n != 0 {
		t.Fatalf("expected expired entries to be evicted, %d left", n)
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
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
