package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverMySQL  = "mysql"

	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"

	SnapshotCacheNone   = "none"
	SnapshotCacheMemory = "memory"
	SnapshotCacheRedis  = "redis"

	EventBrokerNone   = "none"
	EventBrokerLog    = "log"
	EventBrokerPubSub = "pubsub"
	EventBrokerKafka  = "kafka"
)

// StorageDriver selects the catalog/ledger store.
//
// Set via env:
// - STORAGE_DRIVER=memory|mysql (default memory)
func StorageDriver() string {
	return enumFromEnv("STORAGE_DRIVER", StorageDriverMemory, StorageDriverMemory, StorageDriverMySQL)
}

// LockBackend selects how per-product write locks are taken.
// Use redis when more than one replica writes to the same database.
//
// Set via env:
// - LOCK_BACKEND=memory|redis (default memory)
func LockBackend() string {
	return enumFromEnv("LOCK_BACKEND", LockBackendMemory, LockBackendMemory, LockBackendRedis)
}

func LockTTL() time.Duration {
	return time.Duration(intFromEnv("LOCK_TTL_SECONDS", 30)) * time.Second
}

// SnapshotCache selects where computed inventory snapshots are kept between writes.
//
// Set via env:
// - SNAPSHOT_CACHE=none|memory|redis (default memory)
func SnapshotCache() string {
	return enumFromEnv("SNAPSHOT_CACHE", SnapshotCacheMemory, SnapshotCacheNone, SnapshotCacheMemory, SnapshotCacheRedis)
}

func SnapshotCacheTTL() time.Duration {
	return time.Duration(intFromEnv("SNAPSHOT_CACHE_TTL_SECONDS", 300)) * time.Second
}

// EventBroker selects where inventory events go after a committed write.
//
// Set via env:
// - EVENT_BROKER=none|log|pubsub|kafka (default none)
func EventBroker() string {
	return enumFromEnv("EVENT_BROKER", EventBrokerNone, EventBrokerNone, EventBrokerLog, EventBrokerPubSub, EventBrokerKafka)
}

// DefaultCreatedBy is recorded on transactions submitted without a user.
func DefaultCreatedBy() string {
	if v := strings.TrimSpace(os.Getenv("DEFAULT_CREATED_BY")); v != "" {
		return v
	}
	return "admin"
}

func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func enumFromEnv(key string, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
