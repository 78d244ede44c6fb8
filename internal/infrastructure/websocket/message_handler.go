package websocket

import (
	"encoding/json"
	"time"
)

// Feed message types
const (
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeHello  = "hello"
	MessageTypeReview = "reviews"
	MessageTypeLeads  = "leads"
)

// WSMessage is the envelope of every frame on the admin feed.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIncoming answers the few frames a dashboard may send. The feed is
// server-push only; anything else is ignored.
func (c *Client) handleIncoming(raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Type == MessageTypePing {
		if out, err := encode(MessageTypePong, nil); err == nil {
			c.trySend(out)
		}
	}
}
