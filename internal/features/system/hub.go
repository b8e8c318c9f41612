package system

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Hub tracks open websocket connections per user and fans pushed
// payloads out to all of a user's live sessions. It satisfies the
// notification feature's Pusher interface.
type Hub struct {
	mu     sync.RWMutex
	conns  map[primitive.ObjectID]map[*websocket.Conn]bool
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[primitive.ObjectID]map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) Register(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]bool)
	}
	h.conns[userID][conn] = true
}

func (h *Hub) Unregister(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Push delivers the payload to every open session of the user. Absent
// or broken connections are not an error; the stored notification is
// the source of truth.
func (h *Hub) Push(userID primitive.ObjectID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to marshal push payload", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket push failed",
				zap.String("user_id", userID.Hex()), zap.Error(err))
		}
	}
}

// Connections reports how many sessions a user currently has open.
func (h *Hub) Connections(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
