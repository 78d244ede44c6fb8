package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/entity"
	ws "counselhub/internal/infrastructure/websocket"
	"counselhub/internal/usecase"
	"counselhub/pkg/errors"
	"counselhub/pkg/response"
)

type WebSocketHandler struct {
	feed    *ws.Manager
	reviews *usecase.ReviewStore
	leads   *usecase.LeadAggregator
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(feed *ws.Manager, reviews *usecase.ReviewStore, leads *usecase.LeadAggregator) *WebSocketHandler {
	return &WebSocketHandler{
		feed:    feed,
		reviews: reviews,
		leads:   leads,
	}
}

// HandleWebSocket upgrades an authenticated admin session onto the live feed and
// sends the current state as the first frames.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	if !id.Authenticated() {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(id.UserID, conn)
	joined := h.feed.Add(client, func(client *ws.Client) {
		h.feed.SendTo(client, ws.MessageTypeHello, map[string]interface{}{"user_id": id.UserID})
		h.feed.SendTo(client, ws.MessageTypeReview, usecase.ReviewSnapshot{
			Reviews: h.reviews.Reviews(),
			Stats:   h.reviews.Stats(),
			Health:  h.reviews.Health(),
		})
		h.feed.SendTo(client, ws.MessageTypeLeads, h.leads.Leads())
	})
	if !joined {
		conn.Close()
		return nil
	}

	go client.ReadPump(h.feed)
	go client.WritePump()

	return nil
}

// WireFeed pushes every store change to the connected dashboards and returns a
// func that detaches the listeners.
func WireFeed(feed *ws.Manager, reviews *usecase.ReviewStore, leads *usecase.LeadAggregator) func() {
	stopReviews := reviews.OnChange(func(snap usecase.ReviewSnapshot) {
		feed.Broadcast(ws.MessageTypeReview, snap)
	})
	stopLeads := leads.OnChange(func(all []entity.Lead) {
		feed.Broadcast(ws.MessageTypeLeads, all)
	})
	return func() {
		stopReviews()
		stopLeads()
	}
}
