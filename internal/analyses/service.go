package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cvgenius-backend/internal/llm"
	"cvgenius-backend/internal/metrics"
	"cvgenius-backend/internal/normalize"
	"cvgenius-backend/internal/prompt"
)

// Service orchestrates the analysis pipeline: normalize, then one backend
// round-trip per stage in fixed order, then assemble and cache the result.
type Service struct {
	llm      llm.Client
	cache    *Cache
	provider string
	log      *zap.Logger
}

// NewService constructs the orchestrator. A nil logger is replaced with a
// no-op logger.
func NewService(client llm.Client, cache *Cache, provider string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Service{llm: client, cache: cache, provider: provider, log: log}
}

// Cache exposes the injected cache for observability endpoints.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Backend exposes the generation client for health checks.
func (s *Service) Backend() llm.Client {
	return s.llm
}

// Provider returns the configured provider name.
func (s *Service) Provider() string {
	return s.provider
}

// Analyze runs the full pipeline for the given raw inputs. Identical inputs
// and configuration return the cached result without touching the backend;
// concurrent identical requests share one computation.
func (s *Service) Analyze(ctx context.Context, resumeRaw, jobRaw string, opts Options) (AnalysisResult, error) {
	resumeText, err := normalize.Normalize(resumeRaw)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("resume: %w", err)
	}
	jobText, err := normalize.Normalize(jobRaw)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("job description: %w", err)
	}

	fp := ComputeFingerprint(resumeText, jobText, s.provider, s.llm.Model(), opts)

	if cached, ok := s.cache.Get(fp); ok {
		metrics.IncCacheHit()
		s.log.Info("analysis served from cache", zap.String("fingerprint", string(fp)))
		return cached, nil
	}

	return s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (AnalysisResult, error) {
		return s.runPipeline(ctx, fp, resumeText, jobText, opts)
	})
}

func (s *Service) runPipeline(ctx context.Context, fp Fingerprint, resumeText, jobText string, opts Options) (AnalysisResult, error) {
	metrics.IncAnalysisStarted()
	log := s.log.With(zap.String("fingerprint", string(fp)))

	result := AnalysisResult{
		ID:             uuid.NewString(),
		Fingerprint:    fp,
		MatchScore:     MatchScore{Value: ScoreUnscored},
		Model:          s.llm.Model(),
		StageLatencies: make(map[prompt.Stage]int64),
		CreatedAt:      time.Now().UTC(),
	}

	// Score: parse failures degrade to the unscored sentinel.
	raw, err := s.runStage(ctx, log, &result, prompt.StageScore, resumeText, jobText, prompt.Outputs{})
	switch {
	case err == nil:
		if value, perr := parseScore(raw); perr != nil {
			s.degrade(log, prompt.StageScore, perr)
		} else {
			result.MatchScore = MatchScore{Value: value, Scored: true}
		}
	case llm.Fatal(err):
		return s.fail(log, prompt.StageScore, err)
	default:
		s.degrade(log, prompt.StageScore, err)
	}

	// Keyword gap: parse failures degrade to an empty gap.
	prior := prompt.Outputs{Tone: opts.Tone}
	raw, err = s.runStage(ctx, log, &result, prompt.StageKeywordGap, resumeText, jobText, prior)
	switch {
	case err == nil:
		result.KeywordGap = filterPresent(parseKeywordGap(raw), resumeText)
	case llm.Fatal(err):
		return s.fail(log, prompt.StageKeywordGap, err)
	default:
		s.degrade(log, prompt.StageKeywordGap, err)
	}
	if result.KeywordGap == nil {
		result.KeywordGap = []string{}
	}
	prior.KeywordGap = result.KeywordGap

	// Rewrite: the primary deliverable; any failure here is fatal, but score
	// and gap computed so far travel with the error.
	raw, err = s.runStage(ctx, log, &result, prompt.StageRewrite, resumeText, jobText, prior)
	if err != nil {
		if llm.Fatal(err) {
			return s.fail(log, prompt.StageRewrite, err)
		}
		return s.failRewrite(log, result, err.Error())
	}
	rewritten, perr := parseFreeText(raw)
	if perr != nil {
		return s.failRewrite(log, result, perr.Error())
	}
	result.OptimizedResume = rewritten

	// Cover letter: optional and non-fatal; on failure the letter is simply
	// omitted from the result.
	if opts.CoverLetter {
		raw, err = s.runStage(ctx, log, &result, prompt.StageCoverLetter, resumeText, jobText, prior)
		switch {
		case err == nil:
			if letter, perr := parseFreeText(raw); perr != nil {
				s.degrade(log, prompt.StageCoverLetter, perr)
			} else {
				result.CoverLetter = letter
			}
		case llm.Fatal(err):
			return s.fail(log, prompt.StageCoverLetter, err)
		default:
			s.degrade(log, prompt.StageCoverLetter, err)
		}
	}

	metrics.IncAnalysisCompleted()
	log.Info("analysis complete",
		zap.Int("match_score", result.MatchScore.Value),
		zap.Bool("scored", result.MatchScore.Scored),
		zap.Int("keyword_gap", len(result.KeywordGap)),
		zap.Bool("cover_letter", result.CoverLetter != ""),
	)
	return result, nil
}

// runStage builds the stage prompt, performs the backend call, and records
// the stage latency even when the call fails.
func (s *Service) runStage(ctx context.Context, log *zap.Logger, result *AnalysisResult, stage prompt.Stage, resumeText, jobText string, prior prompt.Outputs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%v: %w", err, llm.ErrTimeout)
	}

	p, err := prompt.Build(stage, resumeText, jobText, prior)
	if err != nil {
		return "", err
	}

	resp, err := s.llm.Generate(ctx, llm.Request{Prompt: p.Text, Sampling: p.Sampling})
	elapsed := resp.Elapsed.Milliseconds()
	result.StageLatencies[stage] = elapsed
	metrics.ObserveStageDurationMs(string(stage), float64(elapsed))

	if err != nil {
		return "", err
	}
	log.Info("stage complete", zap.String("stage", string(stage)), zap.Int64("elapsed_ms", elapsed))
	return resp.Text, nil
}

func (s *Service) degrade(log *zap.Logger, stage prompt.Stage, err error) {
	metrics.IncStageDegraded(string(stage))
	log.Warn("stage degraded", zap.String("stage", string(stage)), zap.Error(err))
}

func (s *Service) fail(log *zap.Logger, stage prompt.Stage, err error) (AnalysisResult, error) {
	metrics.IncAnalysisFailed()
	log.Error("analysis failed", zap.String("stage", string(stage)), zap.Error(err))
	return AnalysisResult{}, &StageError{Stage: stage, Err: err}
}

func (s *Service) failRewrite(log *zap.Logger, partial AnalysisResult, reason string) (AnalysisResult, error) {
	metrics.IncAnalysisFailed()
	log.Error("analysis failed", zap.String("stage", string(prompt.StageRewrite)), zap.String("reason", reason))
	return AnalysisResult{}, &RewriteFailureError{
		Score:      partial.MatchScore,
		KeywordGap: partial.KeywordGap,
		Reason:     reason,
	}
}

// IsInputError reports whether err is an empty-input failure.
func IsInputError(err error) bool {
	return errors.Is(err, normalize.ErrEmptyInput)
}
