package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/manish14071/rca-app/internal/models"
)

// MockDB implements database.DBInterface for handler tests.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) CreateUser(username, email, passwordHash string) (*models.User, error) {
	args := m.Called(username, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) CreateExternalUser(username, email, externalID, avatarURL string) (*models.User, error) {
	args := m.Called(username, email, externalID, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) GetUserByID(id uuid.UUID) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) GetUserByExternalID(externalID string) (*models.User, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) GetAllUsers(excludeUserID uuid.UUID) ([]*models.User, error) {
	args := m.Called(excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockDB) UpdateProfile(userID uuid.UUID, update *models.ProfileUpdate) (*models.User, error) {
	args := m.Called(userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) UpdateLastSeen(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockDB) SetOnline(userID uuid.UUID, online bool) error {
	args := m.Called(userID, online)
	return args.Error(0)
}

func (m *MockDB) ResetAllOnline() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDB) SetVerificationToken(userID uuid.UUID, token string, expiry time.Time) error {
	args := m.Called(userID, token, expiry)
	return args.Error(0)
}

func (m *MockDB) VerifyEmail(token string) (*models.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDB) CreateMessage(senderID, receiverID uuid.UUID, content, mediaURL string) (*models.Message, error) {
	args := m.Called(senderID, receiverID, content, mediaURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockDB) GetMessageByID(messageID uuid.UUID) (*models.Message, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockDB) GetConversation(userID1, userID2 uuid.UUID) ([]*models.Message, error) {
	args := m.Called(userID1, userID2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockDB) EditMessage(messageID, senderID uuid.UUID, content string) (*models.Message, error) {
	args := m.Called(messageID, senderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockDB) DeleteMessage(messageID, senderID uuid.UUID) error {
	args := m.Called(messageID, senderID)
	return args.Error(0)
}

func (m *MockDB) MarkMessageAsRead(messageID, receiverID uuid.UUID) error {
	args := m.Called(messageID, receiverID)
	return args.Error(0)
}

func (m *MockDB) GetChatSummaries(userID uuid.UUID) ([]*models.ChatSummary, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChatSummary), args.Error(1)
}

func (m *MockDB) Close() error {
	args := m.Called()
	return args.Error(0)
}

// mockNotifier records relayed messages.
type mockNotifier struct {
	mu       sync.Mutex
	notified []*models.Message
}

func (n *mockNotifier) NotifyNewMessage(msg *models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, msg)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notified)
}

// recordingMailer captures verification mails instead of sending them.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string // recipient addresses
}

func (r *recordingMailer) SendVerification(to, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}
