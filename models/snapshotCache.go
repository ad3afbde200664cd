package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSnapshot is a snapshot tagged with the cache generation it was built for.
type CachedSnapshot struct {
	Generation   int64                  `json:"generation"`
	Rows         []InventorySnapshotRow `json:"rows"`
	LedgerLength int                    `json:"ledger_length"`
	BuiltAt      time.Time              `json:"built_at"`
}

func (s *CachedSnapshot) copyRows() []InventorySnapshotRow {
	return append([]InventorySnapshotRow(nil), s.Rows...)
}

// SnapshotCache holds at most one snapshot per generation. Invalidate moves to
// a new generation, so anything stored for an older one is never loaded again.
type SnapshotCache interface {
	Generation(ctx context.Context) (int64, error)
	Load(ctx context.Context, generation int64) (*CachedSnapshot, bool, error)
	Store(ctx context.Context, snap *CachedSnapshot) error
	Invalidate(ctx context.Context) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Generation(context.Context) (int64, error) { return 0, nil }
func (NoopSnapshotCache) Load(context.Context, int64) (*CachedSnapshot, bool, error) {
	return nil, false, nil
}
func (NoopSnapshotCache) Store(context.Context, *CachedSnapshot) error { return nil }
func (NoopSnapshotCache) Invalidate(context.Context) error             { return nil }

type MemorySnapshotCache struct {
	mu         sync.Mutex
	generation int64
	snap       *CachedSnapshot
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *MemorySnapshotCache) Load(_ context.Context, generation int64) (*CachedSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.snap.Generation != generation || generation != c.generation {
		return nil, false, nil
	}
	out := *c.snap
	out.Rows = c.snap.copyRows()
	return &out, true, nil
}

func (c *MemorySnapshotCache) Store(_ context.Context, snap *CachedSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap == nil || snap.Generation != c.generation {
		return nil
	}
	stored := *snap
	stored.Rows = snap.copyRows()
	c.snap = &stored
	return nil
}

func (c *MemorySnapshotCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.snap = nil
	return nil
}

const (
	redisSnapshotGenerationKey = "inventory:snapshot:generation"
	redisSnapshotKeyPrefix     = "inventory:snapshot:"
)

// RedisSnapshotCache shares the generation counter across replicas.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func redisSnapshotKey(generation int64) string {
	return fmt.Sprintf("%s%d", redisSnapshotKeyPrefix, generation)
}

var errRedisNotInitialized = errors.New("redis not initialized")

func (c *RedisSnapshotCache) Generation(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, errRedisNotInitialized
	}
	n, err := c.client.Get(ctx, redisSnapshotGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *RedisSnapshotCache) Load(ctx context.Context, generation int64) (*CachedSnapshot, bool, error) {
	if c.client == nil {
		return nil, false, errRedisNotInitialized
	}
	raw, err := c.client.Get(ctx, redisSnapshotKey(generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap CachedSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, err
	}
	if snap.Generation != generation {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (c *RedisSnapshotCache) Store(ctx context.Context, snap *CachedSnapshot) error {
	if c.client == nil {
		return errRedisNotInitialized
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisSnapshotKey(snap.Generation), raw, c.ttl).Err()
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return errRedisNotInitialized
	}
	gen, err := c.client.Incr(ctx, redisSnapshotGenerationKey).Result()
	if err != nil {
		return err
	}
	// Best effort: the previous generation can never be loaded again anyway.
	_ = c.client.Del(ctx, redisSnapshotKey(gen-1)).Err()
	return nil
}
