package postmaster

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ancient-mariner/kharon/common"
)

// StatusSnapshot is the live vessel/route status pushed to connected
// operator-console clients.
type StatusSnapshot struct {
	VesselLat, VesselLon float64
	DestLat, DestLon     float64
	ActiveCourseDeg      float64
	PersistentFlags      uint32
	StateFlags           uint32
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StatusHub fans a StatusSnapshot out to every connected WebSocket client,
// for the local operator console.
type StatusHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewStatusHub constructs an empty hub.
func NewStatusHub() *StatusHub {
	return &StatusHub{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the connection and registers it for status pushes.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		common.NewLogger("postmaster-status").WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

func (h *StatusHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast pushes snap to every currently connected client, dropping any
// client whose write fails.
func (h *StatusHub) Broadcast(snap StatusSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
