package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

var ErrLockNotObtained = errors.New("could not obtain product lock")

// Locker serializes writers per key. Acquire takes every key or none, and the
// returned release frees them all.
type Locker interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

func ProductLockKey(productId int) string {
	return fmt.Sprintf("inventory:lock:product:%d", productId)
}

func productLockKeys(ids []int) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProductLockKey(id))
	}
	return keys
}

// orderedKeys sorts and dedupes so overlapping key sets are always taken in the same order.
func orderedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}

// MemoryLocker is a per-key lock table for a single process.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: map[string]*lockSlot{}}
}

func (l *MemoryLocker) slot(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[key]
	if s == nil {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) unref(key string, s *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	keys = orderedKeys(keys)
	held := make([]*lockSlot, 0, len(keys))

	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].ch
			l.unref(keys[i], held[i])
		}
	}

	for _, key := range keys {
		s := l.slot(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, s)
		case <-ctx.Done():
			l.unref(key, s)
			releaseHeld()
			return nil, fmt.Errorf("%w: %v", ErrLockNotObtained, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

// RedisLocker takes one redislock lock per key so replicas sharing a database
// serialize writes to the same product.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewRedisLocker(client *redislock.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		retries: 100,
		backoff: 50 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, errors.New("redis lock not initialized")
	}
	keys = orderedKeys(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	releaseHeld := func() {
		// Release with a fresh context so a cancelled request still frees its locks.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Release(releaseCtx)
		}
	}

	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	}
	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, key, l.ttl, opts)
		if err != nil {
			releaseHeld()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
			}
			return nil, err
		}
		held = append(held, lock)
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}
