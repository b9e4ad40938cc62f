// Package realtime pushes live events (new messages, new notifications) to
// connected client sessions over WebSocket. Push-only: clients never send
// data frames, the HTTP API is the write path.
package realtime

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event is one push frame delivered to a client session.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one connected WebSocket session for a user. A user may hold
// several sessions (multiple tabs/devices) at once.
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// Hub tracks connected sessions per user id.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
}

var hubInstance = NewHub()

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: map[uint]map[*Client]struct{}{},
	}
}

// GetHub returns the process-wide hub instance.
func GetHub() *Hub {
	return hubInstance
}

// SetHub sets the process-wide hub instance (primarily for testing).
func SetHub(h *Hub) {
	hubInstance = h
}

// AddClient registers a connection and starts its write and keepalive loops.
func (h *Hub) AddClient(userID uint, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.keepAliveLoop()

	return c
}

// RemoveClient unregisters a connection and closes it.
func (h *Hub) RemoveClient(c *Client) {
	c.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}

	_ = c.Conn.Close(websocket.StatusNormalClosure, "bye")
}

// Publish sends an event to every open session of one user. A session whose
// send buffer is full has the event dropped; the HTTP API remains the source
// of truth and clients refetch on reconnect.
func (h *Hub) Publish(userID uint, ev Event) {
	h.PublishToUsers([]uint{userID}, ev)
}

// PublishToUsers sends an event to every open session of each listed user.
func (h *Hub) PublishToUsers(userIDs []uint, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			select {
			case c.Send <- ev:
			default:
				// slow consumer, drop
			}
		}
	}
}

// ConnectedUsers returns the ids of users with at least one open session.
func (h *Hub) ConnectedUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uint, 0, len(h.clients))
	for uid := range h.clients {
		ids = append(ids, uid)
	}
	return ids
}

// writeLoop drains c.Send until the client context is cancelled. The channel
// is never closed: Publish may race with shutdown, so the channel is simply
// abandoned and collected with the client.
func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.Conn, ev)
			cancel()
		}
	}
}

func (c *Client) keepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Conn.Ping(pingCtx)
			cancel()
		}
	}
}
