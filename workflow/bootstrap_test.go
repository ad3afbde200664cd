package workflow

import (
	"context"
	"testing"

	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/shopspring/decimal"
)

func TestNewRuntime_DefaultsToInProcessBackends(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("LOCK_BACKEND", "")
	t.Setenv("SNAPSHOT_CACHE", "")
	t.Setenv("EVENT_BROKER", "")

	store, err := OpenStore(quietLogger())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, ok := store.(*models.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if NeedsRedis() {
		t.Fatalf("default backends should not need redis")
	}

	rt, err := NewRuntime(context.Background(), store, quietLogger(), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()
	if rt.Engine == nil || rt.Dispatcher != nil {
		t.Fatalf("unexpected runtime: %+v", rt)
	}
}

func TestNewRuntime_WiresDispatcherForBroker(t *testing.T) {
	t.Setenv("EVENT_BROKER", "log")
	t.Setenv("LOCK_BACKEND", "")
	t.Setenv("SNAPSHOT_CACHE", "none")

	rt, err := NewRuntime(context.Background(), models.NewMemoryStore(), quietLogger(), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()
	if rt.Dispatcher == nil {
		t.Fatalf("expected a dispatcher for the log broker")
	}

	p, err := rt.Engine.CreateProduct(context.Background(), models.ProductInput{Code: "P", Name: "P", Category: models.CategoryBooks, UnitPrice: decimal.NewFromInt(4)})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID != 1 || rt.Dispatcher.Pending() != 1 {
		t.Fatalf("expected one queued event, got %d", rt.Dispatcher.Pending())
	}
}

func TestNewRuntime_RedisBackendsNeedConnection(t *testing.T) {
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("EVENT_BROKER", "")
	if !NeedsRedis() {
		t.Fatalf("redis lock backend should need redis")
	}
	if _, err := NewRuntime(context.Background(), models.NewMemoryStore(), quietLogger(), nil); err == nil {
		t.Fatalf("expected error without a redis connection")
	}
}
