package render

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvgenius-backend/internal/server/respond"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Handler exposes DOCX downloads for analysis output.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches the render routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/render/resume", h.renderResume)
	rg.POST("/render/cover-letter", h.renderCoverLetter)
}

type renderRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" binding:"required"`
}

func (h *Handler) renderResume(c *gin.Context) {
	h.render(c, "optimized-resume.docx", "Resume")
}

func (h *Handler) renderCoverLetter(c *gin.Context) {
	h.render(c, "cover-letter.docx", "Cover Letter")
}

func (h *Handler) render(c *gin.Context, fileName, defaultTitle string) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "input_error", "text is required", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Error(c, http.StatusBadRequest, "input_error", "text is required", nil)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}

	data, err := Document(title, []Section{{Body: req.Text}})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render document", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, docxContentType, data)
}
