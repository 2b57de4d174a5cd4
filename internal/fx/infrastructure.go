package fx

import (
	"context"
	"fmt"
	"time"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/infrastructure"
	"Recurra/internal/logger"
	"Recurra/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		newStore,
		newLocker,
		newRegistry,
		newCollector,
	),
)

// newStore escolhe o backend pelo driver configurado e o envolve no circuit breaker.
func newStore(lc fx.Lifecycle, cfg *config.Config) (recurring.Store, error) {
	store, err := OpenStore(context.Background(), cfg, lc.Append)
	if err != nil {
		return nil, err
	}
	return infrastructure.NewBreakerRepository(store, infrastructure.BreakerSettings{
		MaxFailures: cfg.Generation.BreakerFailures,
		OpenTimeout: cfg.Generation.BreakerOpenDelay,
	}), nil
}

// OpenStore abre o repositório do driver configurado. onStop recebe os hooks de
// encerramento; também usado pela CLI, que não roda dentro do fx.
func OpenStore(ctx context.Context, cfg *config.Config, onStop func(fx.Hook)) (recurring.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := infrastructure.NewDb(cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		onStop(fx.Hook{
			OnStop: func(context.Context) error {
				return sqlDB.Close()
			},
		})
		return infrastructure.NewRecurringRepository(db, cfg.Database.QueryTimeout), nil

	case config.DriverMongo:
		client, err := infrastructure.NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo := infrastructure.NewMongoRepository(client, cfg.Mongo.Database)
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		onStop(fx.Hook{OnStop: repo.Close})
		return repo, nil

	case config.DriverMemory:
		logger.Warn().Msg("Usando repositório em memória; dados não serão persistidos")
		return infrastructure.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("database driver %q is not supported", cfg.Database.Driver)
}

func newLocker(lc fx.Lifecycle, cfg *config.Config) recurring.Locker {
	if !cfg.Redis.Enabled {
		return recurring.NewLocalLocker()
	}
	client := infrastructure.NewRedisClient(cfg)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("Lock distribuído via Redis habilitado")
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return infrastructure.NewRedisLocker(client, cfg.Redis.LockTTL)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newCollector(reg *prometheus.Registry) (*metrics.Collector, error) {
	return metrics.NewCollector(reg)
}
