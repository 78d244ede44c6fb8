package handler

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/usecase"
	"counselhub/pkg/errors"
	"counselhub/pkg/response"
)

type AdminHandler struct {
	reviews *usecase.ReviewStore
	leads   *usecase.LeadAggregator
}

func NewAdminHandler(reviews *usecase.ReviewStore, leads *usecase.LeadAggregator) *AdminHandler {
	return &AdminHandler{
		reviews: reviews,
		leads:   leads,
	}
}

// GetDashboard renders one moderation frame from the current store contents.
// Query: status, origin, q, sort.
func (h *AdminHandler) GetDashboard(c echo.Context) error {
	var cfg usecase.ViewConfig
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &cfg); err != nil {
		return response.Error(c, errors.Validation("Invalid dashboard query", err))
	}

	health := append([]usecase.SyncHealth{h.reviews.Health()}, h.leads.Health()...)
	return response.Success(c, usecase.Project(h.reviews.Reviews(), h.leads.Leads(), health, cfg))
}
