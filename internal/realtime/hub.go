package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks websocket connections per user. A connection belongs to exactly
// one user; one user may hold many connections.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]string
	writeMu   map[*websocket.Conn]*sync.Mutex
	writeWait time.Duration
}

// defaultWriteWait bounds a single write to a peer that stopped reading.
const defaultWriteWait = 10 * time.Second

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]string),
		writeMu:   make(map[*websocket.Conn]*sync.Mutex),
		writeWait: defaultWriteWait,
	}
}

func (h *Hub) AddClient(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = userID
	h.writeMu[conn] = &sync.Mutex{}
	h.mu.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	delete(h.writeMu, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Users returns the ids with at least one open connection.
func (h *Hub) Users() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{}, len(h.clients))
	out := make([]string, 0, len(h.clients))
	for _, userID := range h.clients {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, userID)
	}
	return out
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendJSON writes v to a single connection, serialised with any broadcast.
func (h *Hub) SendJSON(conn *websocket.Conn, v any) error {
	h.mu.RLock()
	mu := h.writeMu[conn]
	h.mu.RUnlock()
	if mu == nil {
		return websocket.ErrCloseSent
	}
	mu.Lock()
	defer mu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func (h *Hub) BroadcastToUser(userID string, v any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0)
	for conn, owner := range h.clients {
		if owner == userID {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := h.SendJSON(conn, v); err != nil {
			h.RemoveClient(conn)
		}
	}
}

func (h *Hub) HasUser(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, owner := range h.clients {
		if owner == userID {
			return true
		}
	}
	return false
}
