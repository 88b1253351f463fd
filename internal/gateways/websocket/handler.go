package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request, sends the current snapshot and then streams
// hub frames until the client goes away.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection",
			"client_ip", c.ClientIP(),
			"error", err,
		)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		ID:   generateClientID(),
	}

	initial, err := json.Marshal(Message{Event: EventSnapshot, Data: h.source.Snapshot()})
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteMessage(websocket.TextMessage, initial)
	}
	if err != nil {
		h.logger.Errorw("ServeWS: failed to send initial snapshot", "client_id", client.ID, "error", err)
		conn.Close()
		return
	}

	h.logger.Infow("WebSocket connection established",
		"client_id", client.ID,
		"client_ip", c.ClientIP(),
		"user_agent", c.GetHeader("User-Agent"),
	)

	ctx := c.Request.Context()
	select {
	case h.register <- client:
	case <-ctx.Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump(ctx)
}

// readPump discards inbound frames; it exists to notice disconnects.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send queue. Every write carries a deadline so a client
// that stops reading cannot pin the goroutine.
func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.hub.logger.Debugw("WebSocket write failed", "client_id", c.ID, "error", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
