package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wonny/tatracker/pkg/logger"
)

// ProgressEvent is pushed to websocket subscribers after each symbol in
// a batch run completes.
type ProgressEvent struct {
	Ticker    string `json:"ticker"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}

// ProgressHub fans batch progress out to websocket subscribers.
// Subscribers that cannot keep up are dropped rather than blocking the
// batch.
type ProgressHub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewProgressHub(log *logger.Logger) *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log.WithField("component", "progress_hub"),
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handle upgrades the request and keeps the connection registered until
// the peer closes it.
func (h *ProgressHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain control frames; an error means the peer went away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every subscriber.
func (h *ProgressHub) Broadcast(ev ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *ProgressHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ProgressHub) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
