package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manish14071/rca-app/internal/auth"
	"github.com/manish14071/rca-app/internal/database"
	"github.com/manish14071/rca-app/internal/email"
	"github.com/manish14071/rca-app/internal/logger"
	"github.com/manish14071/rca-app/internal/models"
)

var log = logger.New("api")

const verificationTokenTTL = 24 * time.Hour

// AuthHandler handles registration, login and verification routes.
type AuthHandler struct {
	DB     database.DBInterface
	Mailer email.Mailer
}

func NewAuthHandler(db database.DBInterface, mailer email.Mailer) *AuthHandler {
	return &AuthHandler{DB: db, Mailer: mailer}
}

// Register handles user registration and kicks off email verification.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user, err := h.DB.CreateUser(input.Username, input.Email, hashedPassword)
	if errors.Is(err, database.ErrUserAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// Verification mail is best-effort; the account exists either way.
	if token, err := auth.NewVerificationToken(); err == nil {
		expiry := time.Now().Add(verificationTokenTTL)
		if err := h.DB.SetVerificationToken(user.ID, token, expiry); err != nil {
			log.Errorf("storing verification token for %s: %v", user.ID, err)
		} else {
			h.Mailer.SendVerification(user.Email, token)
		}
	}

	c.JSON(http.StatusCreated, user.ToResponse())
}

// Login handles password login.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.DB.GetUserByEmail(input.Email)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	// Federated accounts have no password to check.
	if user.PasswordHash == "" || !auth.CheckPasswordHash(input.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := h.DB.UpdateLastSeen(user.ID); err != nil {
		log.Warnf("updating last_seen for %s: %v", user.ID, err)
	}

	h.issueToken(c, user)
}

// LoginExternal signs in (or signs up) a federated identity. The
// subject arrives pre-verified by the edge identity provider; this
// layer only maps it to an account.
func (h *AuthHandler) LoginExternal(c *gin.Context) {
	var input models.ExternalLogin

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.DB.GetUserByExternalID(input.ExternalID)
	if errors.Is(err, database.ErrUserNotFound) {
		user, err = h.DB.CreateExternalUser(input.Username, input.Email, input.ExternalID, input.AvatarURL)
		if errors.Is(err, database.ErrUserAlreadyExists) {
			// The email is taken by a password account.
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	if err := h.DB.UpdateLastSeen(user.ID); err != nil {
		log.Warnf("updating last_seen for %s: %v", user.ID, err)
	}

	h.issueToken(c, user)
}

// VerifyEmail consumes a verification token from the mailed link.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	user, err := h.DB.VerifyEmail(token)
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification token"})
		return
	case errors.Is(err, database.ErrVerificationExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Verification token has expired"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// GetMe gets the current user profile.
func (h *AuthHandler) GetMe(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.DB.GetUserByID(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

func (h *AuthHandler) issueToken(c *gin.Context, user *models.User) {
	token, expiry, err := auth.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"expiry": expiry,
		"user":   user.ToResponse(),
	})
}
