package router

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/handler"
	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/service"
	"counselhub/internal/infrastructure/ratelimit"
)

func SetupReviewRouter(e *echo.Echo, reviewHandler *handler.ReviewHandler, authMiddleware *middleware.AuthMiddleware, publicLimiter *ratelimit.Store) {
	// Public routes
	e.POST("/v1/reviews", reviewHandler.SubmitReview, middleware.PublicRateLimit(publicLimiter))
	e.GET("/v1/lawyers/:lawyerId/reviews", reviewHandler.GetLawyerReviews)

	// Admin routes
	admin := e.Group("/v1/admin/reviews")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.RequireCapability(service.CapModerateReviews))

	admin.GET("", reviewHandler.ListReviews)
	admin.GET("/stats", reviewHandler.GetStats)
	admin.POST("/:id/approve", reviewHandler.ApproveReview)
	admin.POST("/:id/reject", reviewHandler.RejectReview)
	admin.DELETE("/:id", reviewHandler.DeleteReview)
}
