package router

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/handler"
	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, publicLimiter *ratelimit.Store) {
	SetupReviewRouter(e, h.Review, authMiddleware, publicLimiter)
	SetupLeadRouter(e, h.Lead, authMiddleware, publicLimiter)
	SetupAdminRouter(e, h.Admin, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupHealthRouter(e, h.Health)
}
