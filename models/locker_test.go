package models_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akkupratap323/warehouse-inventory/models"
)

func TestMemoryLockerSerializesSameKey(t *testing.T) {
	locker := models.NewMemoryLocker()
	key := models.ProductLockKey(1)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), []string{key})
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
}

func TestMemoryLockerOverlappingSetsDoNotDeadlock(t *testing.T) {
	locker := models.NewMemoryLocker()
	a, b := models.ProductLockKey(1), models.ProductLockKey(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		keys := []string{a, b}
		if i%2 == 1 {
			keys = []string{b, a, b}
		}
		wg.Add(1)
		go func(keys []string) {
			defer wg.Done()
			release, err := locker.Acquire(ctx, keys)
			if err != nil {
				t.Errorf("Acquire(%v): %v", keys, err)
				return
			}
			release()
		}(keys)
	}
	wg.Wait()
}

func TestMemoryLockerHonorsContext(t *testing.T) {
	locker := models.NewMemoryLocker()
	key := models.ProductLockKey(7)

	release, err := locker.Acquire(context.Background(), []string{key})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, []string{models.ProductLockKey(8), key}); !errors.Is(err, models.ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained, got %v", err)
	}

	// the failed attempt must not keep product 8 locked
	other, err := locker.Acquire(context.Background(), []string{models.ProductLockKey(8)})
	if err != nil {
		t.Fatalf("Acquire(8): %v", err)
	}
	other()

	release()
	release()
	again, err := locker.Acquire(context.Background(), []string{key})
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again()
}

func TestMemoryLockerDisjointKeysRunTogether(t *testing.T) {
	locker := models.NewMemoryLocker()
	first, err := locker.Acquire(context.Background(), []string{models.ProductLockKey(1)})
	if err != nil {
		t.Fatalf("Acquire(1): %v", err)
	}
	defer first()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	second, err := locker.Acquire(ctx, []string{models.ProductLockKey(2)})
	if err != nil {
		t.Fatalf("disjoint key blocked: %v", err)
	}
	second()
}
