package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/comparaprecios/backend/config"
)

// maxUploadMemory caps the in-memory part of multipart imports
const maxUploadMemory = 8 << 20

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUploadMemory

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/compare/:name", handler.Compare)
		v1.GET("/compare-all", handler.CompareAll)
		v1.POST("/compare-list", handler.CompareList)
		v1.GET("/names/:prefix", handler.SearchNames)

		listings := v1.Group("/listings")
		{
			listings.GET("", handler.ListListings)
			listings.POST("", handler.CreateListing)
			listings.POST("/import", handler.ImportListings)
			listings.DELETE("/:id", handler.DeleteListing)
		}
	}

	return router
}
