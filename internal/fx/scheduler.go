package fx

import (
	"context"
	"fmt"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

// SchedulerModule dispara o gerador pela expressão cron configurada.
var SchedulerModule = fx.Module("scheduler",
	fx.Invoke(startScheduler),
)

func startScheduler(lc fx.Lifecycle, cfg *config.Config, gen *recurring.Generator) error {
	if !cfg.Generation.Enabled {
		logger.Info().Msg("Agendador de geração desabilitado")
		return nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.Generation.Schedule, func() {
		count, err := gen.Generate(runCtx, cfg.Generation.IncludeOverdue)
		if err != nil {
			logger.Error().Err(err).Msg("Execução agendada de geração falhou")
			return
		}
		logger.Info().Int("generated", count).Msg("Execução agendada de geração concluída")
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid generation schedule %q: %w", cfg.Generation.Schedule, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			logger.Info().
				Str("schedule", cfg.Generation.Schedule).
				Str("timezone", loc.String()).
				Msg("Agendador de geração iniciado")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-c.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
