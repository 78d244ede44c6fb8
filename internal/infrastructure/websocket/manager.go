package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"counselhub/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Client represents one admin dashboard connection. Send is never closed; done
// tells WritePump to hang up.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) trySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Manager fans moderation snapshots out to every connected dashboard. One admin
// may hold several connections. Registration and broadcast share mutex, so a
// connection's initial frames are always queued ahead of later broadcasts.
type Manager struct {
	clients    map[*Client]bool
	Unregister chan *Client
	stopped    chan struct{}
	mutex      sync.RWMutex
	log        *zap.Logger
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		log:        logger.Named("ws"),
	}
}

// Start runs the manager's main loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Unregister:
				m.remove(client)

			case <-ctx.Done():
				m.mutex.Lock()
				close(m.stopped)
				for client := range m.clients {
					delete(m.clients, client)
					client.close()
				}
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Add registers a connection. initial, when non-nil, runs before the connection
// joins the broadcast set and with broadcasts held off, so whatever state it
// queues is never overtaken by an older frame. It returns false once the manager
// has stopped.
func (m *Manager) Add(client *Client, initial func(*Client)) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	select {
	case <-m.stopped:
		return false
	default:
	}

	if initial != nil {
		initial(client)
	}
	m.clients[client] = true
	m.log.Info("dashboard connected", zap.String("user_id", client.UserID))
	return true
}

func (m *Manager) drop(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.stopped:
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.clients[client]; ok {
		delete(m.clients, client)
		client.close()
		m.log.Info("dashboard disconnected", zap.String("user_id", client.UserID))
	}
}

// Broadcast queues a typed frame for every connection. It never blocks on a
// connection; one whose queue is full is dropped.
func (m *Manager) Broadcast(msgType string, data interface{}) {
	msg, err := encode(msgType, data)
	if err != nil {
		m.log.Error("failed to encode feed frame", zap.String("type", msgType), zap.Error(err))
		return
	}

	m.mutex.RLock()
	var slow []*Client
	for client := range m.clients {
		if !client.trySend(msg) {
			slow = append(slow, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range slow {
		m.log.Warn("dropping slow dashboard", zap.String("user_id", client.UserID))
		m.remove(client)
	}
}

// SendTo queues a frame for one connection only.
func (m *Manager) SendTo(client *Client, msgType string, data interface{}) {
	msg, err := encode(msgType, data)
	if err != nil {
		return
	}
	client.trySend(msg)
}

func (m *Manager) Connections() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// ReadPump reads control frames until the connection closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.drop(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Debug("dashboard read error", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}
		c.handleIncoming(message)
	}
}

// WritePump sends queued frames and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
