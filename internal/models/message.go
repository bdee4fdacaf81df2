package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a direct message between two users. Deleted
// messages are tombstones: the row (and content) is retained and only
// suppressed from rendering.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    string     `json:"content"`
	MediaURL   string     `json:"media_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	IsRead     bool       `json:"is_read"`
	Deleted    bool       `json:"deleted"`
}

// MessageRequest is the structure for message creation requests.
// Content may be empty only when a media URL is attached.
type MessageRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	Content    string    `json:"content"`
	MediaURL   string    `json:"media_url" binding:"omitempty,url"`
}

// MessageEdit is the structure for message edit requests.
type MessageEdit struct {
	Content string `json:"content" binding:"required,min=1"`
}

// ChatSummary is the per-counterpart digest shown in a chat list: the
// counterpart, the latest surviving message exchanged with them, and
// how many of their messages are still unread. Derived on demand,
// never persisted.
type ChatSummary struct {
	User        UserResponse `json:"user"`
	LastMessage *Message     `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
