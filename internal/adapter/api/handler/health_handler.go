package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"counselhub/internal/usecase"
)

type HealthHandler struct {
	reviews *usecase.ReviewStore
	leads   *usecase.LeadAggregator
}

func NewHealthHandler(reviews *usecase.ReviewStore, leads *usecase.LeadAggregator) *HealthHandler {
	return &HealthHandler{
		reviews: reviews,
		leads:   leads,
	}
}

// CheckHealth reports "degraded" while any subscription is stale or not yet synced.
// The process still serves its last snapshots, so the status code stays 200.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	subs := append([]usecase.SyncHealth{h.reviews.Health()}, h.leads.Health()...)
	status := "ok"
	for _, s := range subs {
		if s.Stale || !s.Synced {
			status = "degraded"
			break
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        status,
		"time":          time.Now().Format(time.RFC3339),
		"subscriptions": subs,
	})
}
