package database

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/manish14071/rca-app/internal/models"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrMessageNotFound     = errors.New("message not found")
	ErrSelfMessage         = errors.New("sender and receiver must differ")
	ErrEmptyMessage        = errors.New("message needs content or media")
	ErrNotSender           = errors.New("only the sender may modify a message")
	ErrEditWindowExpired   = errors.New("edit window has expired")
	ErrVerificationExpired = errors.New("verification token has expired")
)

// DBInterface is the persistence seam the rest of the server is written
// against. Implementations are assumed durable and consistent per call.
type DBInterface interface {
	// User methods
	CreateUser(username, email, passwordHash string) (*models.User, error)
	CreateExternalUser(username, email, externalID, avatarURL string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
	GetUserByExternalID(externalID string) (*models.User, error)
	GetAllUsers(excludeUserID uuid.UUID) ([]*models.User, error)
	UpdateProfile(userID uuid.UUID, update *models.ProfileUpdate) (*models.User, error)
	UpdateLastSeen(userID uuid.UUID) error
	SetOnline(userID uuid.UUID, online bool) error
	ResetAllOnline() error
	SetVerificationToken(userID uuid.UUID, token string, expiry time.Time) error
	VerifyEmail(token string) (*models.User, error)

	// Message methods
	CreateMessage(senderID, receiverID uuid.UUID, content, mediaURL string) (*models.Message, error)
	GetMessageByID(messageID uuid.UUID) (*models.Message, error)
	GetConversation(userID1, userID2 uuid.UUID) ([]*models.Message, error)
	EditMessage(messageID, senderID uuid.UUID, content string) (*models.Message, error)
	DeleteMessage(messageID, senderID uuid.UUID) error
	MarkMessageAsRead(messageID, receiverID uuid.UUID) error
	GetChatSummaries(userID uuid.UUID) ([]*models.ChatSummary, error)

	Close() error
}
