package analyses

import (
	"fmt"

	"cvgenius-backend/internal/prompt"
)

// Error codes surfaced in HTTP responses.
const (
	ErrorCodeInput              = "input_error"
	ErrorCodeBackendUnavailable = "backend_unavailable"
	ErrorCodeModelNotFound      = "model_not_found"
	ErrorCodeRewriteFailed      = "rewrite_failed"
	ErrorCodeInternal           = "internal_error"
)

// StageError wraps a fatal backend failure with the stage it occurred in.
type StageError struct {
	Stage prompt.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RewriteFailureError means the rewrite stage produced no usable resume, the
// primary deliverable. The analysis fails, but the score and keyword gap
// computed before the failure are carried so callers can still show them.
type RewriteFailureError struct {
	Score      MatchScore
	KeywordGap []string
	Reason     string
}

func (e *RewriteFailureError) Error() string {
	return "rewrite produced no usable resume: " + e.Reason
}
