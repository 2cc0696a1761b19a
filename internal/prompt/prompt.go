// Package prompt builds the fixed, stage-specific instructions sent to the
// generation backend.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cvgenius-backend/internal/llm"
)

// Stage identifies one backend-invoking step of the analysis pipeline.
type Stage string

const (
	StageScore       Stage = "score"
	StageKeywordGap  Stage = "keyword_gap"
	StageRewrite     Stage = "rewrite"
	StageCoverLetter Stage = "cover_letter"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageScore, StageKeywordGap, StageRewrite, StageCoverLetter}
}

// Prompt is an immutable instruction string plus the sampling configuration
// for one stage. Built fresh per stage invocation.
type Prompt struct {
	Stage    Stage
	Text     string
	Sampling llm.Sampling
}

// Outputs carries earlier stage results into later prompts. The rewrite and
// cover-letter templates take the keyword gap so the rewrite is
// keyword-aware.
type Outputs struct {
	KeywordGap []string
	Tone       string
}

var (
	//go:embed templates/score.txt
	scoreTemplate string
	//go:embed templates/keyword_gap.txt
	keywordGapTemplate string
	//go:embed templates/rewrite.txt
	rewriteTemplate string
	//go:embed templates/cover_letter.txt
	coverLetterTemplate string
)

// Resume and job text are truncated to keep prompts inside the backend's
// context window; the head of each document carries the signal ATS screens
// care about.
const (
	maxResumeChars = 6000
	maxJobChars    = 4000
)

// DefaultTone is used when the caller does not pick a cover-letter persona.
const DefaultTone = "professional"

// sampling is fixed per stage at build time so output formats stay
// predictable: near-deterministic scoring, moderate keyword extraction,
// higher temperature for the generative stages.
var sampling = map[Stage]llm.Sampling{
	StageScore:       {Temperature: 0.1, TopP: 0.9, MaxTokens: 128},
	StageKeywordGap:  {Temperature: 0.3, TopP: 0.9, MaxTokens: 512},
	StageRewrite:     {Temperature: 0.7, TopP: 0.9, MaxTokens: 2048},
	StageCoverLetter: {Temperature: 0.8, TopP: 0.9, MaxTokens: 1024},
}

// Sampling returns the fixed sampling configuration for a stage.
func Sampling(stage Stage) (llm.Sampling, bool) {
	s, ok := sampling[stage]
	return s, ok
}

// Build renders the stage template with the normalized resume and job text.
// Resume and job content is wrapped in data fences and the templates instruct
// the model to treat fenced content as data, so instructions embedded in a
// resume cannot override the stage instruction block.
func Build(stage Stage, resume, job string, prior Outputs) (Prompt, error) {
	var tmpl string
	switch stage {
	case StageScore:
		tmpl = scoreTemplate
	case StageKeywordGap:
		tmpl = keywordGapTemplate
	case StageRewrite:
		tmpl = rewriteTemplate
	case StageCoverLetter:
		tmpl = coverLetterTemplate
	default:
		return Prompt{}, fmt.Errorf("unknown stage %q", stage)
	}

	if strings.TrimSpace(resume) == "" || strings.TrimSpace(job) == "" {
		return Prompt{}, errors.New("resume and job text are required")
	}

	tone := strings.TrimSpace(prior.Tone)
	if tone == "" {
		tone = DefaultTone
	}

	replacer := strings.NewReplacer(
		"{{RESUME}}", fence("RESUME", truncate(resume, maxResumeChars)),
		"{{JOB}}", fence("JOB", truncate(job, maxJobChars)),
		"{{KEYWORD_GAP}}", keywordGapLine(prior.KeywordGap),
		"{{TONE}}", tone,
	)

	return Prompt{
		Stage:    stage,
		Text:     replacer.Replace(tmpl),
		Sampling: sampling[stage],
	}, nil
}

func fence(label, content string) string {
	return fmt.Sprintf("<<<%s\n%s\n%s>>>", label, content, label)
}

func keywordGapLine(gap []string) string {
	if len(gap) == 0 {
		return "(none identified)"
	}
	return strings.Join(gap, ", ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
