package websocket

import (
	"github.com/google/uuid"

	"github.com/manish14071/rca-app/internal/models"
)

// Relay pushes events at specific live connections instead of waiting
// for the parties to poll.
type Relay struct {
	manager *Manager
}

func NewRelay(m *Manager) *Relay {
	return &Relay{manager: m}
}

// NotifyNewMessage delivers a persisted message to both parties. The
// sender gets an echo of the same event so its UI updates without a
// second round trip. Both pushes are best-effort; an offline party sees
// the message on its next fetch.
func (r *Relay) NotifyNewMessage(msg *models.Message) {
	payload := NewMessageEvent(msg)
	r.manager.SendToUser(msg.ReceiverID, payload)
	r.manager.SendToUser(msg.SenderID, payload)
}

// NotifyTyping forwards an ephemeral typing signal. Nothing is
// persisted and nothing is retried; throttling belongs to the client.
func (r *Relay) NotifyTyping(senderID, receiverID uuid.UUID) {
	r.manager.SendToUser(receiverID, TypingNotice(senderID))
}
