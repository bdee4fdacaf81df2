package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manish14071/rca-app/internal/uploads"
)

// 25 MB is plenty for chat media.
const maxUploadBytes = 25 << 20

// UploadHandler streams media uploads into the blob store.
type UploadHandler struct {
	Store *uploads.Store
}

func NewUploadHandler(store *uploads.Store) *UploadHandler {
	return &UploadHandler{Store: store}
}

// Upload accepts one multipart file and responds with its public URL,
// which the client then attaches to a message.
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	url, err := h.Store.Save(file, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
