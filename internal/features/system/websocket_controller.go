package system

import (
	"flowcrm/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		Hub:    hub,
		Logger: logger,
	}
}

// HandleWebSocket authenticates the connection from a token query
// parameter, parks it in the hub, and holds the read loop open until
// the client goes away. Inbound frames are ignored; the socket is a
// one-way notification channel.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	token := c.Query("token")
	claims, err := utils.ValidateToken(token)
	if err != nil {
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
		_ = c.Close()
		return
	}

	userID := claims.User()
	h.Hub.Register(userID, c)
	h.Logger.Debug("websocket connected", zap.String("user_id", claims.UserID))

	defer func() {
		h.Hub.Unregister(userID, c)
		_ = c.Close()
		h.Logger.Debug("websocket disconnected", zap.String("user_id", claims.UserID))
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
