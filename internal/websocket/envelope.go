package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manish14071/rca-app/internal/models"
)

// Wire envelope kinds. The set is closed: anything else coming off a
// connection is rejected at the boundary.
const (
	EventAuth       = "auth"
	EventTyping     = "typing"
	EventNewMessage = "newMessage"
	EventUserStatus = "userStatus"
	EventError      = "error"
)

var (
	ErrMalformedEnvelope = errors.New("malformed event envelope")
	ErrUnknownEventType  = errors.New("unknown event type")
)

// Envelope is the wire framing for every realtime event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InboundEvent is the closed set of envelope kinds a client may send.
type InboundEvent interface {
	inboundEvent()
}

// AuthEvent binds the connection to a user identity and triggers
// registration. The id must match the token the connection was
// upgraded with.
type AuthEvent struct {
	UserID uuid.UUID `json:"userId"`
}

// TypingEvent is an ephemeral typing signal aimed at another user.
type TypingEvent struct {
	ReceiverID uuid.UUID `json:"receiverId"`
}

func (AuthEvent) inboundEvent()   {}
func (TypingEvent) inboundEvent() {}

// DecodeInbound parses one frame into a typed event. Server-to-client
// kinds arriving from a client are treated the same as unknown ones.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	switch env.Type {
	case EventAuth:
		var ev AuthEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad auth payload", ErrMalformedEnvelope)
		}
		if ev.UserID == uuid.Nil {
			return nil, fmt.Errorf("%w: auth requires userId", ErrMalformedEnvelope)
		}
		return ev, nil
	case EventTyping:
		var ev TypingEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad typing payload", ErrMalformedEnvelope)
		}
		if ev.ReceiverID == uuid.Nil {
			return nil, fmt.Errorf("%w: typing requires receiverId", ErrMalformedEnvelope)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}

func mustEnvelope(typ string, payload interface{}) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload types are our own structs; this cannot fail at runtime.
		panic(err)
	}
	out, err := json.Marshal(Envelope{Type: typ, Payload: raw})
	if err != nil {
		panic(err)
	}
	return out
}

// NewMessageEvent frames a freshly persisted message for push delivery.
func NewMessageEvent(msg *models.Message) []byte {
	return mustEnvelope(EventNewMessage, msg)
}

// UserStatusEvent frames an online/offline transition.
func UserStatusEvent(userID uuid.UUID, online bool) []byte {
	return mustEnvelope(EventUserStatus, struct {
		UserID uuid.UUID `json:"userId"`
		Online bool      `json:"online"`
	}{userID, online})
}

// TypingNotice frames a forwarded typing signal.
func TypingNotice(userID uuid.UUID) []byte {
	return mustEnvelope(EventTyping, struct {
		UserID uuid.UUID `json:"userId"`
	}{userID})
}

// ErrorEvent reports malformed input back to the offending connection.
func ErrorEvent(message string) []byte {
	return mustEnvelope(EventError, struct {
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}{message, time.Now().UTC()})
}
