package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small Redis front for the open-slot listing. A nil *Cache is
// valid and caches nothing, so the server runs fine without Redis.
//
// Listings are stored under a key that embeds a version counter; every
// slot write bumps the counter, so a just-booked slot can never be served
// from a stale cached listing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

const slotVersionKey = "slots:version"

// Connect dials Redis and returns nil (cache disabled) if the server is
// unreachable rather than failing startup.
func Connect(ctx context.Context, addr string) *Cache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, running without listing cache: %v", addr, err)
		return nil
	}
	log.Printf("Connected to Redis at %s", addr)
	return &Cache{client: client, ttl: 30 * time.Second}
}

func (c *Cache) key(ctx context.Context, suffix string) string {
	ver, err := c.client.Get(ctx, slotVersionKey).Result()
	if err != nil {
		ver = "0"
	}
	return fmt.Sprintf("slots:v%s:%s", ver, suffix)
}

// GetListing unmarshals a cached listing into dest, reporting whether it
// was present.
func (c *Cache) GetListing(ctx context.Context, suffix string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, c.key(ctx, suffix)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetListing stores a listing under the current version. Failures are
// logged and ignored; the cache is never load-bearing.
func (c *Cache) SetListing(ctx context.Context, suffix string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(ctx, suffix), data, c.ttl).Err(); err != nil {
		log.Printf("Failed to cache listing %q: %v", suffix, err)
	}
}

// InvalidateSlots bumps the version counter, orphaning every cached
// listing. Called after any slot create, claim, or status change.
func (c *Cache) InvalidateSlots(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, slotVersionKey).Err(); err != nil {
		log.Printf("Failed to invalidate slot listings: %v", err)
	}
}
