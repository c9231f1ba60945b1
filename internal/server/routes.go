// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleveque/company-icons/internal/config"
	"github.com/fleveque/company-icons/internal/handler"
	"github.com/fleveque/company-icons/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Dependencies are passed explicitly; each handler gets only what it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	iconHandler := handler.NewIconHandler(deps.IconService, logger)
	statsHandler := handler.NewStatsHandler(deps.IconService, deps.LLMCallRepo, logger)

	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/stats", statsHandler.Stats)
	r.POST("/get_icons", iconHandler.GetIcons)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}
}
