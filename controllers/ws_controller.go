package controllers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/realtime"
	"nhooyr.io/websocket"
)

// RealtimeFeed handles GET /api/v1/ws - upgrades to a WebSocket and streams
// the caller's realtime events (new messages, new notifications) until the
// client disconnects. Browsers cannot set an Authorization header on a
// WebSocket handshake, so the route also accepts ?token= (see
// middleware.TokenFromQuery).
func RealtimeFeed(c *gin.Context) {
	user, ok := middleware.RequireConfirmedUser(c)
	if !ok {
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket: accept failed for user %d: %v", user.ID, err)
		return
	}

	hub := realtime.GetHub()
	client := hub.AddClient(user.ID, conn)
	defer hub.RemoveClient(client)

	// push-only: discard any client frames, unblock on disconnect
	ctx := conn.CloseRead(c.Request.Context())
	<-ctx.Done()
}
