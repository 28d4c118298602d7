package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS and every API route.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	{
		// App catalog
		api.GET("/apps", h.ListApps)
		api.POST("/apps/reload", h.ReloadApps)
		api.GET("/apps/:package/icon.png", h.AppIcon)

		// Widget configs
		api.GET("/widgets", h.ListWidgets)
		api.POST("/widgets/refresh", h.RefreshAllWidgets)
		api.GET("/widgets/:id", h.GetWidget)
		api.PUT("/widgets/:id", h.SaveWidget)
		api.DELETE("/widgets/:id", h.DeleteWidget)

		// Host integration
		api.PUT("/widgets/:id/size", h.ReportSize)
		api.POST("/widgets/:id/refresh", h.RefreshWidget)
		api.GET("/widgets/:id/frame", h.GetFrame)
		api.GET("/widgets/:id/frame/background.png", h.FrameBackground)
		api.GET("/widgets/:id/frame/icon.png", h.FrameIcon)

		// Configuration session
		api.GET("/session", h.NewSession)
		api.GET("/defaults", h.GetDefaults)

		// Renders
		api.GET("/render/background", h.RenderBackground)
		api.GET("/render/preview", h.RenderPreview)
		api.GET("/render/source", h.RenderSource)

		// Error logs
		api.GET("/error-logs", h.GetErrorLogs)
		api.DELETE("/error-logs", h.ClearErrorLogs)

		// Health and metrics
		api.GET("/health", h.HealthCheck)
		api.GET("/metrics", h.GetMetrics)
		api.GET("/metrics/prometheus", h.GetPrometheusMetrics)
	}

	return r
}
