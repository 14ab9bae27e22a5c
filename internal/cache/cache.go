// Package cache is a small read-through cache for room listings. Rooms are
// owned by the catalog and change rarely, so a short TTL is the only
// invalidation.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Rooms struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRooms(addr string, ttl time.Duration) *Rooms {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Rooms{client: client, ttl: ttl}
}

func (c *Rooms) Ping(ctx context.Context) error {
	if _, err := c.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *Rooms) Close() error {
	return c.client.Close()
}

func Key(city string, minPrice, maxPrice *int64) string {
	min, max := int64(-1), int64(-1)
	if minPrice != nil {
		min = *minPrice
	}
	if maxPrice != nil {
		max = *maxPrice
	}
	return fmt.Sprintf("rooms:%s:%d:%d", city, min, max)
}

// Get returns the cached payload, or ok=false on miss or redis failure. A
// broken cache must never fail a read.
func (c *Rooms) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *Rooms) Set(ctx context.Context, key string, payload []byte) {
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}
