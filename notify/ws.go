package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"wanderplan/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Authorizer reports whether userID may read the itinerary.
type Authorizer func(ctx context.Context, userID, itineraryID string) bool

// WebSocketHandler subscribes the caller to notices for :id. It must sit
// behind the authenticator so the user id is in the request context.
func WebSocketHandler(hub *Hub, authorize Authorizer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("id")
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.SendError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		if authorize != nil && !authorize(r.Context(), userID, room) {
			utils.SendError(w, http.StatusNotFound, "Itinerary not found")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade", "error", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 16),
			Room:   room,
			UserID: userID,
		}
		if authorize != nil {
			client.Allowed = func(ctx context.Context) bool { return authorize(ctx, userID, room) }
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.permits(msg) {
				// Access was revoked; closing ends readPump, which unregisters.
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; notices flow one way.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
