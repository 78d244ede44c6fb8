package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/service"
	"counselhub/pkg/errors"
)

type mockAccessor map[string]entity.Identity

func (m mockAccessor) Identify(ctx context.Context, token string) (entity.Identity, error) {
	id, ok := m[token]
	if !ok {
		return entity.Identity{}, errors.Unauthorized("unknown token", nil)
	}
	return id, nil
}

func serve(t *testing.T, mw []echo.MiddlewareFunc, target, header string) (*httptest.ResponseRecorder, entity.Identity) {
	t.Helper()
	e := echo.New()
	var seen entity.Identity
	h := func(c echo.Context) error {
		seen = IdentityFrom(c)
		return c.NoContent(http.StatusNoContent)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec, seen
}

func TestAuthenticate(t *testing.T) {
	admin := entity.Identity{UserID: "admin-1", Role: entity.RoleAdmin}
	m := NewAuthMiddleware(mockAccessor{"good": admin})
	chain := []echo.MiddlewareFunc{m.Authenticate}

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"bearer header", "/", "Bearer good", http.StatusNoContent},
		{"query token", "/?access_token=good", "", http.StatusNoContent},
		{"missing", "/", "", http.StatusUnauthorized},
		{"wrong scheme", "/", "Basic good", http.StatusUnauthorized},
		{"empty token", "/", "Bearer  ", http.StatusUnauthorized},
		{"unknown token", "/", "Bearer bad", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := serve(t, chain, tt.target, tt.header)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, admin, seen)
			}
		})
	}
}

func TestRequireCapability(t *testing.T) {
	m := NewAuthMiddleware(mockAccessor{
		"admin":  {UserID: "admin-1", Role: entity.RoleAdmin},
		"lawyer": {UserID: "lawyer-1", Role: entity.RoleLawyer},
		"user":   {UserID: "user-1", Role: entity.RoleUser},
	})

	tests := []struct {
		token string
		cap   service.Capability
		want  int
	}{
		{"admin", service.CapModerateReviews, http.StatusNoContent},
		{"lawyer", service.CapModerateReviews, http.StatusForbidden},
		{"user", service.CapManageLeads, http.StatusForbidden},
		{"lawyer", service.CapViewBulletin, http.StatusNoContent},
		{"user", service.CapViewBulletin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.token+"/"+string(tt.cap), func(t *testing.T) {
			chain := []echo.MiddlewareFunc{m.Authenticate, RequireCapability(tt.cap)}
			rec, _ := serve(t, chain, "/", "Bearer "+tt.token)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireCapabilityWithoutAuthenticate(t *testing.T) {
	rec, _ := serve(t, []echo.MiddlewareFunc{RequireCapability(service.CapSubmitMatchRequest)}, "/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
