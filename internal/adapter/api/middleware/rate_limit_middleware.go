package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"counselhub/internal/infrastructure/ratelimit"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
	"counselhub/pkg/response"
)

// PublicRateLimit throttles anonymous submission routes per client IP.
func PublicRateLimit(store *ratelimit.Store) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.Error(c, errors.Internal("rate limiter unavailable", err))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("rate limit hit for %s on %s", identifier, c.Path())
			return response.Error(c, errors.RateLimited("Too many requests, try again shortly"))
		},
	})
}
