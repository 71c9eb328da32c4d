package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no client-supplied commands, so any origin may listen.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub maintains the set of connected websocket clients and broadcasts every
// published event to all of them. Events missed while disconnected are not
// replayed; clients re-fetch current state on reconnect.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewHub initializes a hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		closed:     make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection and returns.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	defer func() {
		h.closeOnce.Do(func() { close(h.closed) })
		for c := range clients {
			close(c.send)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case payload := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish encodes the event and queues it for broadcast. It never blocks the
// caller: when the hub is stopped or saturated the event is dropped.
func (h *Hub) Publish(_ context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("encode event", "event", ev.Name, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.closed:
	default:
		slog.Warn("event dropped, hub saturated", "event", ev.Name)
	}
}

// ServeWS upgrades the request to a websocket connection and attaches it to
// the hub as a listener.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "err", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 64)}
	select {
	case h.register <- c:
	case <-h.closed:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
