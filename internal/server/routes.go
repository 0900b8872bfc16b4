package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/config"
	"github.com/fairquote/quote-service/internal/handler"
	"github.com/fairquote/quote-service/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	quoteHandler := handler.NewQuoteHandler(deps.QuoteService, logger)
	adminHandler := handler.NewAdminHandler(deps.CallRepo, logger)

	// Public endpoint (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/quotes/analyze", quoteHandler.Analyze)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/calls", adminHandler.Calls)
	}
}
