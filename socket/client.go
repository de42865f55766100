package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"codecollab/engine"
	"codecollab/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from the editor's dev server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection for one authenticated user. The user
// descriptor comes from the identity middleware, never from the wire.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	User engine.User
	Send chan []byte
}

// ServeWs upgrades the request and starts the read/write pumps. The user
// descriptor is the one extracted by the auth middleware; the engine
// trusts it as-is.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, user engine.User) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:  hub,
		Conn: conn,
		User: user,
		Send: make(chan []byte, 256),
	}
	hub.register(client)

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Set the server-authoritative user id to prevent spoofing.
		msg.UserID = c.User.ID

		c.Hub.dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second) // keepalive ping
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // connection is dead
			}
		}
	}
}
