package fx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"Recurra/config"
	"Recurra/internal/logger"
	"Recurra/internal/middleware"
	"Recurra/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ServerModule fornece a configuração do servidor HTTP
var ServerModule = fx.Module("server",
	fx.Provide(
		newRouter,
	),
	fx.Invoke(
		startServer,
	),
)

func newRouter(cfg *config.Config) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	return router
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	router *gin.Engine,
	handler *routes.Handler,
	limiter *middleware.RateLimiter,
	reg *prometheus.Registry,
) {
	routes.Register(router, handler, limiter, reg)

	serverAddr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", serverAddr)
			if err != nil {
				return err
			}
			logger.Info().
				Str("address", serverAddr).
				Str("environment", cfg.App.Environment).
				Msg("Servidor iniciando")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("Falha ao iniciar servidor")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Servidor parando...")
			return srv.Shutdown(ctx)
		},
	})
}
