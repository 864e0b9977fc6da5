package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tradegate/internal/contracts"
)

// Cache fronts a Broker with snapshot/bars caching. Backed by Redis when
// a client is configured, falling back to an in-process TTL map
// otherwise, so the cache layer works without Redis deployed (e.g.
// local/dev).
type Cache struct {
	redisClient *redis.Client

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// NewCache builds a Cache. redisAddr empty uses the in-process fallback only.
func NewCache(redisAddr string) *Cache {
	c := &Cache{entries: make(map[string]cacheEntry)}
	if redisAddr != "" {
		c.redisClient = redis.NewClient(&redis.Options{Addr: redisAddr})
	}
	return c
}

func snapshotKey(instrument contracts.Instrument) string {
	return fmt.Sprintf("snapshot:%s:%s", instrument.Type, instrument.Symbol)
}

func barsKey(instrument contracts.Instrument, timeframe Timeframe) string {
	return fmt.Sprintf("bars:%s:%s:%s", instrument.Type, instrument.Symbol, timeframe)
}

func (c *Cache) GetSnapshot(ctx context.Context, instrument contracts.Instrument) (contracts.MarketSnapshot, bool) {
	var snap contracts.MarketSnapshot
	ok := c.get(ctx, snapshotKey(instrument), &snap)
	return snap, ok
}

func (c *Cache) SetSnapshot(ctx context.Context, snap contracts.MarketSnapshot) {
	c.set(ctx, snapshotKey(snap.Instrument), snap, snapshotCacheTTL)
}

func (c *Cache) GetBars(ctx context.Context, instrument contracts.Instrument, timeframe Timeframe) ([]contracts.Bar, bool) {
	var bars []contracts.Bar
	ok := c.get(ctx, barsKey(instrument, timeframe), &bars)
	return bars, ok
}

func (c *Cache) SetBars(ctx context.Context, instrument contracts.Instrument, timeframe Timeframe, bars []contracts.Bar) {
	c.set(ctx, barsKey(instrument, timeframe), bars, barsCacheTTL)
}

func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	if c.redisClient != nil {
		data, err := c.redisClient.Get(ctx, key).Bytes()
		if err != nil {
			return false
		}
		return json.Unmarshal(data, dest) == nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		return false
	}
	return json.Unmarshal(entry.value, dest) == nil
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if c.redisClient != nil {
		_ = c.redisClient.Set(ctx, key, data, ttl).Err()
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: data, expires: time.Now().Add(ttl)}
}

// Close releases the Redis connection, if any.
func (c *Cache) Close() error {
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
