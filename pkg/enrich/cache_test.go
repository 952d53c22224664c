package enrich

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"

	"comicshelf/pkg/domain"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	results := []domain.ComicRecord{{ID: "gcd-1", Title: "Saga"}}
	cache.Set("saga", results)
	got, ok := cache.Get("saga")
	if !ok {
		t.Fatalf("expected cache hit within TTL")
	}
	if len(got) != 1 || got[0].ID != "gcd-1" {
		t.Fatalf("cache returned %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	if _, ok := cache.Get("nothing"); ok {
		t.Fatalf("unexpected hit for absent key")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCache(time.Hour, WithClock(clock))
	cache.Set("saga", []domain.ComicRecord{{ID: "gcd-1"}})

	clock.Advance(time.Hour)
	if _, ok := cache.Get("saga"); !ok {
		t.Fatalf("entry at exactly TTL should still be visible")
	}

	clock.Advance(time.Millisecond)
	if _, ok := cache.Get("saga"); ok {
		t.Fatalf("entry past TTL should be evicted")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry should be purged on lookup, len = %d", cache.Len())
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	cache.Set("a", nil)
	cache.Set("b", nil)
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("Clear should drop all entries")
	}
}

func TestRedisCacheRoundTripAndTTL(t *testing.T) {
	srv := miniredis.RunT(t)
	cache := NewRedisCache(srv.Addr(), "", "test:searchcache", time.Hour)

	cache.Set("saga", []domain.ComicRecord{{ID: "gcd-1", Title: "Saga"}})
	got, ok := cache.Get("saga")
	if !ok || len(got) != 1 || got[0].Title != "Saga" {
		t.Fatalf("redis cache returned %+v ok=%v", got, ok)
	}

	srv.FastForward(time.Hour + time.Second)
	if _, ok := cache.Get("saga"); ok {
		t.Fatalf("redis entry should expire after TTL")
	}
}

func TestRedisCacheFailsOpen(t *testing.T) {
	srv := miniredis.RunT(t)
	cache := NewRedisCache(srv.Addr(), "", "test:searchcache", time.Hour)
	srv.Close()
	if _, ok := cache.Get("saga"); ok {
		t.Fatalf("unreachable redis should read as a miss")
	}
	cache.Set("saga", nil) // must not panic
}
