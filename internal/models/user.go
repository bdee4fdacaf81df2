package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Email is the durable unique
// identity; username is a display name that falls back to the email
// local part when the client does not supply one.
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // empty for federated accounts
	ExternalID         string     `json:"-"` // federated login subject, empty for password accounts
	Online             bool       `json:"online"`
	EmailVerified      bool       `json:"email_verified"`
	VerificationToken  *string    `json:"-"`
	VerificationExpiry *time.Time `json:"-"`
	AvatarURL          string     `json:"avatar_url,omitempty"`
	Status             string     `json:"status,omitempty"`
	StatusEmoji        string     `json:"status_emoji,omitempty"`
	HasStory           bool       `json:"has_story"`
	CreatedAt          time.Time  `json:"created_at"`
	LastSeen           time.Time  `json:"last_seen"`
}

// UserRegistration contains data needed for user registration.
type UserRegistration struct {
	Username string `json:"username" binding:"omitempty,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=5"`
}

// UserLogin contains data needed for password login.
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ExternalLogin carries an identity-provider subject that the edge
// verifier has already validated.
type ExternalLogin struct {
	ExternalID string `json:"external_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Username   string `json:"username" binding:"omitempty,max=30"`
	AvatarURL  string `json:"avatar_url" binding:"omitempty,url"`
}

// ProfileUpdate is the mutable slice of a user's profile decorations.
type ProfileUpdate struct {
	Username    *string `json:"username" binding:"omitempty,min=3,max=30"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
	Status      *string `json:"status" binding:"omitempty,max=120"`
	StatusEmoji *string `json:"status_emoji" binding:"omitempty,max=16"`
	HasStory    *bool   `json:"has_story"`
}

// UserResponse is what we return to the client.
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Online        bool      `json:"online"`
	EmailVerified bool      `json:"email_verified"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Status        string    `json:"status,omitempty"`
	StatusEmoji   string    `json:"status_emoji,omitempty"`
	HasStory      bool      `json:"has_story"`
	CreatedAt     time.Time `json:"created_at"`
	LastSeen      time.Time `json:"last_seen"`
}

// ToResponse strips the credential fields off a User.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Online:        u.Online,
		EmailVerified: u.EmailVerified,
		AvatarURL:     u.AvatarURL,
		Status:        u.Status,
		StatusEmoji:   u.StatusEmoji,
		HasStory:      u.HasStory,
		CreatedAt:     u.CreatedAt,
		LastSeen:      u.LastSeen,
	}
}
