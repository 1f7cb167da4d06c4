package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/moi/internal/server/models"
	"github.com/gin-gonic/gin"
)

type createFileInput struct {
	ContentType string `json:"content_type" binding:"required"`
}

// UploadOutput tells the client where to PUT the file body.
type UploadOutput struct {
	ID         string `json:"id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
}

// FileOutput is a tracked file.
type FileOutput struct {
	ID          string    `json:"id"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func fileOutput(f *models.File) FileOutput {
	return FileOutput{
		ID:          f.ID,
		StorageKey:  f.StorageKey,
		ContentType: f.ContentType,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
}

func (h *Handler) createFile(c *gin.Context) {
	var in createFileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abortValidation(c, err)
		return
	}

	up, err := h.files.CreateUpload(c.Request.Context(), currentUser(c).ID, in.ContentType)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, UploadOutput{ID: up.File.ID, StorageKey: up.File.StorageKey, UploadURL: up.UploadURL})
}

func (h *Handler) listFiles(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	out := make([]FileOutput, 0, len(files))
	for _, f := range files {
		out = append(out, fileOutput(f))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) completeFile(c *gin.Context) {
	if err := h.files.Complete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) downloadFile(c *gin.Context) {
	url, err := h.files.DownloadURL(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
