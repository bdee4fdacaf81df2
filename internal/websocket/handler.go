package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front of us.
		return true
	},
}

// Handler upgrades authenticated HTTP requests into live connections.
type Handler struct {
	manager *Manager
	relay   *Relay
}

func NewHandler(m *Manager, r *Relay) *Handler {
	return &Handler{manager: m, relay: r}
}

// Serve upgrades the request and starts the connection's pumps. The
// token already authorized the user; registration itself waits for the
// auth envelope confirming the identity on this connection.
func (h *Handler) Serve(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user identification"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("failed to upgrade connection for %s: %v", c.Request.RemoteAddr, err)
		return
	}

	client := newClient(userUUID, conn)

	go client.writePump()
	go client.readPump(h.manager, h.relay)

	log.Debugf("connection for user %s upgraded, awaiting auth envelope", userUUID)
}
