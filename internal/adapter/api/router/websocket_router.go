package router

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/handler"
	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/service"
)

// SetupWebSocketRouter mounts the live moderation feed for admins.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/admin/ws", wsHandler.HandleWebSocket,
		authMiddleware.Authenticate,
		middleware.RequireCapability(service.CapModerateReviews))
}
