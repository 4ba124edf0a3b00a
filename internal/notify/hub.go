package notify

import (
	"sync"

	"github.com/gorilla/websocket"

	"parkhub/internal/logger"
)

// Hub fans notification payloads out to connected websocket clients.
// Clients register into their own user group and into the shared broadcast
// group, mirroring the per-user and global notification channels.
type Hub struct {
	mu      sync.RWMutex
	byUser  map[int64]map[*websocket.Conn]struct{}
	allConn map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byUser:  make(map[int64]map[*websocket.Conn]struct{}),
		allConn: make(map[*websocket.Conn]struct{}),
	}
}

// Register adds a connection to the user's group and the broadcast group.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[*websocket.Conn]struct{})
	}
	h.byUser[userID][conn] = struct{}{}
	h.allConn[conn] = struct{}{}

	logger.Get().Debug("Websocket client registered",
		"user_id", userID,
		"connections", len(h.allConn))
}

// Unregister drops the connection from every group and closes it.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.byUser[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.byUser, userID)
		}
	}
	delete(h.allConn, conn)
	conn.Close()

	logger.Get().Debug("Websocket client unregistered",
		"user_id", userID,
		"connections", len(h.allConn))
}

// SendToUser writes the payload to every connection in the user's group.
// Write failures drop the connection; delivery is best effort.
func (h *Hub) SendToUser(userID int64, payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.byUser[userID]))
	for conn := range h.byUser[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Get().Warn("Websocket write failed, dropping client",
				"user_id", userID,
				"error", err.Error())
			h.Unregister(userID, conn)
		}
	}
}

// Broadcast writes the payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.allConn))
	for conn := range h.allConn {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			h.mu.Lock()
			delete(h.allConn, conn)
			h.mu.Unlock()
		}
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allConn)
}
