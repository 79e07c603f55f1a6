package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"smartval/internal/service"

	"github.com/gin-gonic/gin"
)

// ImportHandler handles bulk Excel upload requests
type ImportHandler struct {
	importer     *service.Importer
	pool         *service.WorkerPool
	maxFileBytes int64
}

// NewImportHandler creates a new import handler
func NewImportHandler(importer *service.Importer, pool *service.WorkerPool, maxFileBytes int64) *ImportHandler {
	return &ImportHandler{
		importer:     importer,
		pool:         pool,
		maxFileBytes: maxFileBytes,
	}
}

// Upload handles POST /api/v1/import — reads the workbook into memory up
// front so the background job never depends on the request body, then queues
// the import and returns a task id.
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload: " + err.Error()})
		return
	}
	if h.maxFileBytes > 0 && fileHeader.Size > h.maxFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload: " + err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}

	id, err := h.pool.Submit(c.Request.Context(), "import", func(ctx context.Context) (any, error) {
		return h.importer.ImportWorkbook(ctx, bytes.NewReader(data))
	})
	if err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server busy, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": id})
}
