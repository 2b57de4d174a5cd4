package routes

import (
	"net/http"

	"Recurra/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Register(router *gin.Engine, handler *Handler, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer) {
	router.Use(middleware.RequestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	{
		recurring := api.Group("/recurring")
		{
			recurring.POST("", handler.CreateRecurring)
			recurring.GET("", handler.ListRecurrings)
			recurring.GET("/upcoming", handler.UpcomingRecurrings)
			recurring.POST("/generate", handler.GenerateRecurrings)
			recurring.GET("/:id", handler.GetRecurring)
			recurring.PATCH("/:id", handler.UpdateRecurring)
			recurring.DELETE("/:id", handler.DeleteRecurring)
			recurring.POST("/:id/pause", handler.PauseRecurring)
			recurring.POST("/:id/resume", handler.ResumeRecurring)
			recurring.GET("/:id/logs", handler.ListGenerationLogs)
			recurring.GET("/:id/transactions", handler.ListGeneratedTransactions)
		}
	}
}
