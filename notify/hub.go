package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Notice is pushed to every reader watching an itinerary.
type Notice struct {
	Action      string `json:"action"`
	ItineraryID string `json:"itineraryId"`
	By          string `json:"by"`
	Timestamp   int64  `json:"timestamp"`
}

// Client is one websocket subscriber in a room.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string

	// Allowed re-checks read access before each notice is written.
	// Nil means always allowed.
	Allowed func(ctx context.Context) bool
}

// actionDeleted is delivered without a re-check: the record is gone, and any
// reader who lost access earlier was dropped by the notice that revoked it.
const actionDeleted = "deleted"

const recheckTimeout = 5 * time.Second

// permits reports whether the notice in msg may still be shown to c.
func (c *Client) permits(msg []byte) bool {
	if c.Allowed == nil {
		return true
	}
	var n Notice
	if err := json.Unmarshal(msg, &n); err == nil && n.Action == actionDeleted {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), recheckTimeout)
	defer cancel()
	return c.Allowed(ctx)
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans notices out to the clients of a room. Rooms are keyed by
// itinerary id. Only the Run goroutine touches the room map.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once
	now        func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
		case c := <-h.unregister:
			h.drop(c)
		case m := <-h.broadcast:
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					// slow reader
					h.drop(c)
				}
			}
		case <-h.done:
			for room, conns := range h.rooms {
				for c := range conns {
					close(c.Send)
				}
				delete(h.rooms, room)
			}
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	conns := h.rooms[c.Room]
	if conns == nil || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Stop ends Run and closes every client's send channel. Safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c to its room. It reports false once the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Notify publishes a notice to the itinerary's room. It never blocks the
// caller for long: when the queue is full the notice is dropped.
func (h *Hub) Notify(itineraryID, action, by string) {
	data, err := json.Marshal(Notice{
		Action:      action,
		ItineraryID: itineraryID,
		By:          by,
		Timestamp:   h.now().Unix(),
	})
	if err != nil {
		slog.Error("encode notice", "error", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{Room: itineraryID, Data: data}:
	case <-h.done:
	default:
		slog.Warn("notice dropped", "itinerary", itineraryID, "action", action)
	}
}
