package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return WSMessage{}
}

func TestManagerBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager()
	m.Start(ctx)

	a := NewClient("admin-1", nil)
	b := NewClient("admin-1", nil)
	require.True(t, m.Add(a, nil))
	require.True(t, m.Add(b, nil))
	assert.Equal(t, 2, m.Connections())

	m.Broadcast(MessageTypeReview, map[string]int{"total_reviews": 3})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, MessageTypeReview, msg.Type)
		assert.Equal(t, map[string]interface{}{"total_reviews": float64(3)}, msg.Data)
	}
}

func TestManagerDropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager()
	m.Start(ctx)

	slow := NewClient("admin-1", nil)
	require.True(t, m.Add(slow, nil))
	for i := 0; i < sendBuffer; i++ {
		require.True(t, slow.trySend([]byte("{}")))
	}

	m.Broadcast(MessageTypeLeads, []string{})
	assert.Eventually(t, func() bool { return m.Connections() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, slow.trySend([]byte("{}")))
}

func TestManagerStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	m.Start(ctx)

	c := NewClient("admin-1", nil)
	require.True(t, m.Add(c, nil))
	cancel()

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("client not closed on stop")
	}
	assert.False(t, m.Add(NewClient("admin-2", nil), nil))
}

func TestManagerInitialFramesPrecedeBroadcasts(t *testing.T) {
	tests := []struct {
		name      string
		broadcast string
	}{
		{"broadcast raised while joining", "during"},
		{"broadcast raised after joining", "after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			m := NewManager()
			m.Start(ctx)

			delivered := make(chan struct{})
			push := func() {
				m.Broadcast(MessageTypeLeads, []string{"current"})
				close(delivered)
			}

			c := NewClient("admin-1", nil)
			require.True(t, m.Add(c, func(c *Client) {
				if tt.broadcast == "during" {
					go push()
					// give the broadcast time to contend for the registration
					time.Sleep(20 * time.Millisecond)
				}
				m.SendTo(c, MessageTypeLeads, []string{"initial"})
			}))
			if tt.broadcast == "after" {
				push()
			}
			<-delivered

			assert.Equal(t, []interface{}{"initial"}, receive(t, c).Data)
			assert.Equal(t, []interface{}{"current"}, receive(t, c).Data)
			assert.Empty(t, c.Send)
		})
	}
}

func TestPingGetsPong(t *testing.T) {
	c := NewClient("admin-1", nil)
	c.handleIncoming([]byte(`{"type":"ping"}`))
	assert.Equal(t, MessageTypePong, receive(t, c).Type)

	c.handleIncoming([]byte(`not json`))
	assert.Empty(t, c.Send)
}
