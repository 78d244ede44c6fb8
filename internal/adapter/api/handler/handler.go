package handler

import (
	"counselhub/internal/infrastructure/websocket"
	"counselhub/internal/usecase"
)

// Handlers groups every HTTP handler. It is built once in main and handed to the
// routers; nothing here is package-level state.
type Handlers struct {
	Review    *ReviewHandler
	Lead      *LeadHandler
	Admin     *AdminHandler
	Health    *HealthHandler
	WebSocket *WebSocketHandler
}

type Deps struct {
	Reviews       *usecase.ReviewStore
	Leads         *usecase.LeadAggregator
	MatchRequests *usecase.MatchRequestUseCase
	Intake        *usecase.IntakeUseCase
	Feed          *websocket.Manager
}

func New(d Deps) *Handlers {
	return &Handlers{
		Review:    NewReviewHandler(d.Reviews),
		Lead:      NewLeadHandler(d.Leads, d.MatchRequests, d.Intake),
		Admin:     NewAdminHandler(d.Reviews, d.Leads),
		Health:    NewHealthHandler(d.Reviews, d.Leads),
		WebSocket: NewWebSocketHandler(d.Feed, d.Reviews, d.Leads),
	}
}
