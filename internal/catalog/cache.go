package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "catalog:sellable"

var ErrCacheMiss = errors.New("cache miss")

// Cache holds the last catalog snapshot in Redis for a short, jittered TTL.
// A nil *Cache is valid and behaves as a permanent miss, so the reader works
// without Redis configured.
type Cache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client:  client,
		baseTTL: 30 * time.Second,
	}
}

func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return &snap, nil
}

func (c *Cache) Set(ctx context.Context, snap *Snapshot) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(15)) * time.Second
	if err := c.client.Set(ctx, cacheKey, data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
