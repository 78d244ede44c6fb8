package router

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/handler"
	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/service"
)

func SetupAdminRouter(e *echo.Echo, adminHandler *handler.AdminHandler, authMiddleware *middleware.AuthMiddleware) {
	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.RequireCapability(service.CapModerateReviews))

	admin.GET("/dashboard", adminHandler.GetDashboard)
}
