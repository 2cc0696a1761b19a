package extract

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvgenius-backend/internal/server/respond"
)

// Uploads beyond this size are rejected before extraction.
const maxUploadBytes = 10 << 20

// Handler exposes file-to-text extraction over HTTP.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches the extraction route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract", h.extractFile)
}

func (h *Handler) extractFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "input_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "input_error", "file too large", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}

	text, err := TextFromBytes(data, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "input_error", err.Error(), nil)
		return
	}
	if strings.TrimSpace(text) == "" {
		respond.Error(c, http.StatusBadRequest, "input_error",
			"no text extracted; the file may be scanned or image-based", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"text": text})
}
