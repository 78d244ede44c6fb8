package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/service"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
	"counselhub/pkg/response"
)

const identityKey = "identity"

// IdentityAccessor resolves a bearer token into the caller's identity.
type IdentityAccessor interface {
	Identify(ctx context.Context, token string) (entity.Identity, error)
}

type AuthMiddleware struct {
	accessor IdentityAccessor
	log      *zap.Logger
}

func NewAuthMiddleware(accessor IdentityAccessor) *AuthMiddleware {
	return &AuthMiddleware{
		accessor: accessor,
		log:      logger.Named("auth"),
	}
}

// Authenticate rejects requests without a valid bearer token. Browsers cannot set
// headers on a websocket upgrade, so the token may also come as ?access_token=.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" && c.QueryParam("access_token") != "" {
			header = "Bearer " + c.QueryParam("access_token")
		}
		token, err := bearerToken(header)
		if err != nil {
			return response.Error(c, err)
		}

		id, err := m.accessor.Identify(c.Request().Context(), token)
		if err != nil {
			m.log.Debug("token rejected", zap.Error(err))
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(identityKey, id)
		return next(c)
	}
}

// RequireCapability must run after Authenticate.
func RequireCapability(capability service.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.Require(IdentityFrom(c), capability); err != nil {
				return response.Error(c, err)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the caller set by Authenticate, or the anonymous identity.
func IdentityFrom(c echo.Context) entity.Identity {
	id, _ := c.Get(identityKey).(entity.Identity)
	return id
}

// WithIdentity stores id on the context the way Authenticate does.
func WithIdentity(c echo.Context, id entity.Identity) {
	c.Set(identityKey, id)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Unauthorized("Authorization header is required", nil)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}
