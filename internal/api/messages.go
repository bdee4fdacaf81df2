package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manish14071/rca-app/internal/database"
	"github.com/manish14071/rca-app/internal/models"
)

// MessageNotifier pushes persisted messages to live connections. The
// HTTP layer calls it after a successful insert; it is the only seam
// between this layer and the realtime core.
type MessageNotifier interface {
	NotifyNewMessage(msg *models.Message)
}

// MessageHandler handles message-related routes.
type MessageHandler struct {
	DB       database.DBInterface
	Notifier MessageNotifier
}

func NewMessageHandler(db database.DBInterface, notifier MessageNotifier) *MessageHandler {
	return &MessageHandler{DB: db, Notifier: notifier}
}

// SendMessage validates, persists and relays a new message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.DB.CreateMessage(senderID, req.ReceiverID, req.Content, req.MediaURL)
	switch {
	case errors.Is(err, database.ErrSelfMessage), errors.Is(err, database.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Receiver not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}

	h.Notifier.NotifyNewMessage(message)

	c.JSON(http.StatusCreated, message)
}

// GetConversation returns all messages between the authenticated user
// and another user.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	otherUserID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	messages, err := h.DB.GetConversation(userUUID, otherUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversation"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// EditMessage replaces a message's content, subject to the sender and
// edit-window checks in the store.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var edit models.MessageEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.DB.EditMessage(messageID, userUUID, edit.Content)
	switch {
	case errors.Is(err, database.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	case errors.Is(err, database.ErrNotSender):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case errors.Is(err, database.ErrEditWindowExpired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit message"})
		return
	}

	c.JSON(http.StatusOK, message)
}

// DeleteMessage tombstones a message.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	err = h.DB.DeleteMessage(messageID, userUUID)
	switch {
	case errors.Is(err, database.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	case errors.Is(err, database.ErrNotSender):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// MarkMessageAsRead marks a message as read; only its receiver may.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	if err := h.DB.MarkMessageAsRead(messageID, userUUID); err != nil {
		if errors.Is(err, database.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark message as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

// GetChats returns the caller's chat summaries.
func (h *MessageHandler) GetChats(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	summaries, err := h.DB.GetChatSummaries(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chats"})
		return
	}
	if summaries == nil {
		summaries = []*models.ChatSummary{}
	}

	c.JSON(http.StatusOK, summaries)
}
