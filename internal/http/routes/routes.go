package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/http/handlers"
	"github.com/phambaophuc/tiny-compress-images/internal/http/middleware"
)

type Router struct {
	settingsHandler   *handlers.SettingsHandler
	attachmentHandler *handlers.AttachmentHandler
	gatherer          prometheus.Gatherer
	logger            *zap.Logger
}

func NewRouter(
	settingsHandler *handlers.SettingsHandler,
	attachmentHandler *handlers.AttachmentHandler,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Router {
	return &Router{
		settingsHandler:   settingsHandler,
		attachmentHandler: attachmentHandler,
		gatherer:          gatherer,
		logger:            logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.attachmentHandler.HealthCheck)

		v1.GET("/settings", r.settingsHandler.GetSettings)
		v1.POST("/settings", middleware.RequireForm(), r.settingsHandler.SaveSettings)

		attachments := v1.Group("/attachments")
		{
			attachments.GET("/:id", r.attachmentHandler.GetStatus)
			attachments.POST("/:id/compress", r.attachmentHandler.Compress)
		}
	}

	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image compression is running",
		})
	})

	return router
}
