package fx

import (
	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/metrics"

	"go.uber.org/fx"
)

// DomainModule fornece o service de definições e o gerador
var DomainModule = fx.Module("domain",
	fx.Provide(
		newRecurringService,
		newGenerator,
	),
)

func newRecurringService(cfg *config.Config, store recurring.Store) (*recurring.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return recurring.NewService(store, loc), nil
}

func newGenerator(cfg *config.Config, store recurring.Store, locker recurring.Locker, collector *metrics.Collector) (*recurring.Generator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return recurring.NewGenerator(store, recurring.GeneratorOptions{
		Locker:   locker,
		Recorder: collector,
		Workers:  cfg.Generation.Workers,
		Location: loc,
	}), nil
}
