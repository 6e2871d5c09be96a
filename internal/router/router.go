package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doculens/internal/config"
	"doculens/internal/handler"
	"doculens/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	extractionH *handler.ExtractionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(&cfg.Auth))

	extractions := v1.Group("/extractions")
	extractions.POST("", extractionH.Submit)
	extractions.POST("/sync", extractionH.ProcessSync)
	extractions.GET("", extractionH.List)
	extractions.GET("/:id", extractionH.GetByID)
	extractions.GET("/:id/export", extractionH.Export)

	return r
}
