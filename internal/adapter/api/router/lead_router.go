package router

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/handler"
	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/service"
	"counselhub/internal/infrastructure/ratelimit"
)

func SetupLeadRouter(e *echo.Echo, leadHandler *handler.LeadHandler, authMiddleware *middleware.AuthMiddleware, publicLimiter *ratelimit.Store) {
	// Public routes
	e.POST("/v1/intake", leadHandler.SubmitIntake, middleware.PublicRateLimit(publicLimiter))

	// Signed-in routes; capabilities are checked again by the use cases
	authenticated := e.Group("/v1")
	authenticated.Use(authMiddleware.Authenticate)

	authenticated.POST("/match-requests", leadHandler.SubmitMatchRequest)
	authenticated.GET("/bulletin", leadHandler.GetBulletin, middleware.RequireCapability(service.CapViewBulletin))
	authenticated.POST("/bulletin/:leadId/interest", leadHandler.ExpressInterest, middleware.RequireCapability(service.CapExpressInterest))

	// Admin routes
	admin := e.Group("/v1/admin/leads")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.RequireCapability(service.CapManageLeads))

	admin.GET("", leadHandler.ListLeads)
	admin.GET("/stats", leadHandler.GetLeadStats)
	admin.GET("/match-request/:id", leadHandler.GetMatchRequest)
	admin.PATCH("/:origin/:id/status", leadHandler.UpdateLeadStatus)
	admin.DELETE("/:origin/:id", leadHandler.RemoveLead)
}
