package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manish14071/rca-app/internal/database"
	"github.com/manish14071/rca-app/internal/models"
)

// UserHandler handles the roster and profile routes.
type UserHandler struct {
	DB database.DBInterface
}

func NewUserHandler(db database.DBInterface) *UserHandler {
	return &UserHandler{DB: db}
}

// ListUsers returns every other user with their presence state, for
// the chat roster.
func (h *UserHandler) ListUsers(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := h.DB.GetAllUsers(userUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}

// UpdateProfile mutates the caller's profile decorations.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userUUID, ok := currentUser(c)
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.DB.UpdateProfile(userUUID, &update)
	if errors.Is(err, database.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
