package analyses

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvgenius-backend/internal/llm"
	"cvgenius-backend/internal/server/respond"
)

// Handler wires HTTP handlers to the analysis orchestrator.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.createAnalysis)
}

type analyzeRequest struct {
	ResumeText  string `json:"resumeText"`
	JobText     string `json:"jobText"`
	CoverLetter bool   `json:"coverLetter"`
	Tone        string `json:"tone"`
}

func (h *Handler) createAnalysis(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeInput, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" || strings.TrimSpace(req.JobText) == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeInput, "resumeText and jobText are required", nil)
		return
	}

	result, err := h.Svc.Analyze(c.Request.Context(), req.ResumeText, req.JobText, Options{
		CoverLetter: req.CoverLetter,
		Tone:        req.Tone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var rewriteErr *RewriteFailureError
	switch {
	case IsInputError(err):
		respond.Error(c, http.StatusBadRequest, ErrorCodeInput,
			err.Error()+"; re-export the PDF with selectable text or paste the text directly", nil)
	case errors.Is(err, llm.ErrModelNotFound):
		respond.Error(c, http.StatusBadGateway, ErrorCodeModelNotFound,
			err.Error(), gin.H{"hint": llm.RemediationHint(h.Svc.Provider(), err)})
	case errors.Is(err, llm.ErrTimeout):
		respond.Error(c, http.StatusGatewayTimeout, ErrorCodeBackendUnavailable,
			err.Error(), gin.H{"hint": llm.RemediationHint(h.Svc.Provider(), err)})
	case errors.Is(err, llm.ErrConnection):
		respond.Error(c, http.StatusBadGateway, ErrorCodeBackendUnavailable,
			err.Error(), gin.H{"hint": llm.RemediationHint(h.Svc.Provider(), err)})
	case errors.As(err, &rewriteErr):
		// The score and gap computed before the rewrite failed travel in
		// the error details.
		respond.Error(c, http.StatusBadGateway, ErrorCodeRewriteFailed, rewriteErr.Error(), gin.H{
			"matchScore": rewriteErr.Score,
			"keywordGap": rewriteErr.KeywordGap,
		})
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "analysis failed", nil)
	}
}
