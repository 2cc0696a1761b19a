package analyses

import (
	"time"

	"cvgenius-backend/internal/prompt"
)

// Analysis pipeline states. A request moves through them in order; failed is
// reachable from any state.
const (
	StatePending     = "pending"
	StateNormalizing = "normalizing"
	StateScoring     = "scoring"
	StateKeywordGap  = "keyword_gapping"
	StateRewriting   = "rewriting"
	StateCoverLetter = "cover_lettering"
	StateComplete    = "complete"
	StateFailed      = "failed"
)

// ScoreUnscored is the sentinel MatchScore used when score parsing failed.
// It is out of the valid [0,100] band on purpose; callers must not read it
// as a low score.
const ScoreUnscored = -1

// MatchScore is an ATS-style compatibility score.
type MatchScore struct {
	Value  int  `json:"value"`
	Scored bool `json:"scored"`
}

// InRange reports whether the score is a valid 0-100 value.
func (s MatchScore) InRange() bool {
	return s.Scored && s.Value >= 0 && s.Value <= 100
}

// Options selects the optional stages and persona of an analysis.
type Options struct {
	CoverLetter bool
	Tone        string
}

// AnalysisResult is the aggregate outcome of one full pipeline run. It is
// owned by the orchestrator until returned, read-only afterward.
type AnalysisResult struct {
	ID              string                 `json:"id"`
	Fingerprint     Fingerprint            `json:"fingerprint"`
	MatchScore      MatchScore             `json:"matchScore"`
	KeywordGap      []string               `json:"keywordGap"`
	OptimizedResume string                 `json:"optimizedResume"`
	CoverLetter     string                 `json:"coverLetter,omitempty"`
	Model           string                 `json:"model"`
	StageLatencies  map[prompt.Stage]int64 `json:"stageLatenciesMs"`
	CreatedAt       time.Time              `json:"createdAt"`
}
