package main

import (
	"context"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/infrastructure"
	appfx "Recurra/internal/fx"
	"Recurra/internal/logger"

	"go.uber.org/fx"
)

// app monta as dependências sem o container fx; closers roda os hooks de
// encerramento em ordem inversa.
type app struct {
	cfg       *config.Config
	service   *recurring.Service
	generator *recurring.Generator
	closers   []func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	appfx.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	store, err := appfx.OpenStore(ctx, cfg, a.onStop)
	if err != nil {
		return nil, err
	}

	var locker recurring.Locker = recurring.NewLocalLocker()
	if cfg.Redis.Enabled {
		client := infrastructure.NewRedisClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, err
		}
		a.onStop(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		locker = infrastructure.NewRedisLocker(client, cfg.Redis.LockTTL)
	}

	a.service = recurring.NewService(store, loc)
	a.generator = recurring.NewGenerator(store, recurring.GeneratorOptions{
		Locker:   locker,
		Workers:  cfg.Generation.Workers,
		Location: loc,
	})
	return a, nil
}

func (a *app) onStop(hook fx.Hook) {
	if hook.OnStop != nil {
		a.closers = append(a.closers, hook.OnStop)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Falha ao encerrar recurso")
		}
	}
}
