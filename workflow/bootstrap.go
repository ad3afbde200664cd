package workflow

import (
	"context"
	"fmt"

	"github.com/akkupratap323/warehouse-inventory/config"
	"github.com/akkupratap323/warehouse-inventory/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// NeedsRedis reports whether the configured backends use Redis.
func NeedsRedis() bool {
	return config.LockBackend() == config.LockBackendRedis || config.SnapshotCache() == config.SnapshotCacheRedis
}

// OpenStore connects the store selected by STORAGE_DRIVER. For mysql it blocks
// until the database answers and runs migrations unless SKIP_MIGRATIONS is set.
func OpenStore(logger *logrus.Logger) (models.Store, error) {
	if config.StorageDriver() != config.StorageDriverMySQL {
		return models.NewMemoryStore(), nil
	}
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if config.SkipMigrations() {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	} else if err := models.MigrateTable(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return models.NewGormStore(db), nil
}

// Runtime is the engine with the collaborators chosen from the environment.
// Dispatcher is nil when EVENT_BROKER is none.
type Runtime struct {
	Engine     *models.InventoryEngine
	Store      models.Store
	Dispatcher *Dispatcher
	Publisher  Publisher
}

// NewRuntime builds the engine over store. Redis must already be connected
// when NeedsRedis reports true.
func NewRuntime(ctx context.Context, store models.Store, logger *logrus.Logger, tp trace.TracerProvider) (*Runtime, error) {
	opts := []models.EngineOption{
		models.WithLogger(logger),
		models.WithDefaultCreatedBy(config.DefaultCreatedBy()),
	}
	if tp != nil {
		opts = append(opts, models.WithTracer(tp.Tracer(config.ServiceName)))
	}

	if config.LockBackend() == config.LockBackendRedis {
		if config.GetRedisLock() == nil {
			return nil, fmt.Errorf("LOCK_BACKEND=redis but redis is not connected")
		}
		opts = append(opts, models.WithLocker(models.NewRedisLocker(config.GetRedisLock(), config.LockTTL())))
	}

	switch config.SnapshotCache() {
	case config.SnapshotCacheMemory:
		opts = append(opts, models.WithSnapshotCache(models.NewMemorySnapshotCache()))
	case config.SnapshotCacheRedis:
		if config.GetRedisDB() == nil {
			return nil, fmt.Errorf("SNAPSHOT_CACHE=redis but redis is not connected")
		}
		opts = append(opts, models.WithSnapshotCache(models.NewRedisSnapshotCache(config.GetRedisDB(), config.SnapshotCacheTTL())))
	}

	rt := &Runtime{Store: store}
	publisher, err := NewPublisher(ctx, config.EventBroker(), tp, logger)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	if publisher != nil {
		rt.Publisher = publisher
		rt.Dispatcher = NewDispatcher(publisher, logger, 0)
		opts = append(opts, models.WithNotifier(rt.Dispatcher))
	}

	rt.Engine = models.NewInventoryEngine(store, opts...)
	return rt, nil
}

// Close releases the publisher. Run the dispatcher's context cancel first.
func (rt *Runtime) Close() {
	if rt.Publisher != nil {
		_ = rt.Publisher.Close()
	}
}
