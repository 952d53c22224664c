package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"comicshelf/pkg/domain"
)

// RedisCache is a ResultCache shared across service replicas. Storage errors
// are logged and treated as misses/no-ops so the enrichment path never fails
// because of the cache.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects a cache to redis. Prefix defaults to
// "comicshelf:searchcache".
func NewRedisCache(addr, password, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "comicshelf:searchcache"
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: strings.TrimSpace(addr), Password: password}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(key string) ([]domain.ComicRecord, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+":"+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("search cache read failed", "err", err)
		return nil, false
	}
	var results []domain.ComicRecord
	if err := json.Unmarshal(raw, &results); err != nil {
		slog.Warn("search cache entry corrupt", "err", err)
		return nil, false
	}
	return results, true
}

func (c *RedisCache) Set(key string, results []domain.ComicRecord) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+":"+key, raw, c.ttl).Err(); err != nil {
		slog.Warn("search cache write failed", "err", err)
	}
}
