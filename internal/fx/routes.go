package fx

import (
	"context"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/middleware"
	"Recurra/internal/routes"

	"go.uber.org/fx"
)

// RoutesModule fornece handlers e rate limiter
var RoutesModule = fx.Module("routes",
	fx.Provide(
		newHandler,
		newRateLimiter,
	),
)

func newHandler(svc *recurring.Service, gen *recurring.Generator) *routes.Handler {
	return &routes.Handler{
		RecurringService: svc,
		Generator:        gen,
	}
}

func newRateLimiter(lc fx.Lifecycle, cfg *config.Config) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go limiter.Cleanup(stop)
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
	return limiter
}
