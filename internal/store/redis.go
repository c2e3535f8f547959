package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// ShareCacheTTL bounds how stale a cached public profile page can be.
const ShareCacheTTL = 5 * time.Minute

// ShareCache caches rendered public profile pages by slug.
type ShareCache struct {
	rdb *redis.Client
}

func NewShareCache(rdb *redis.Client) *ShareCache {
	return &ShareCache{rdb: rdb}
}

// Get returns the cached page, or nil on miss.
func (c *ShareCache) Get(ctx context.Context, slug string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, "share:"+slug).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (c *ShareCache) Set(ctx context.Context, slug string, page []byte) error {
	return c.rdb.Set(ctx, "share:"+slug, page, ShareCacheTTL).Err()
}

// Invalidate drops the cached page, used after profile edits and bans.
func (c *ShareCache) Invalidate(ctx context.Context, slug string) error {
	return c.rdb.Del(ctx, "share:"+slug).Err()
}
