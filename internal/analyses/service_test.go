package analyses

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cvgenius-backend/internal/llm"
	"cvgenius-backend/internal/normalize"
	"cvgenius-backend/internal/prompt"
)

// fakeClient scripts one response per stage. Stages are identified by their
// fixed sampling configuration.
type fakeClient struct {
	mu        sync.Mutex
	calls     int
	prompts   map[prompt.Stage]string
	responses map[prompt.Stage]string
	errs      map[prompt.Stage]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		prompts: make(map[prompt.Stage]string),
		responses: map[prompt.Stage]string{
			prompt.StageScore:       "87",
			prompt.StageKeywordGap:  "Kubernetes\nTerraform",
			prompt.StageRewrite:     "Jane Doe\nSenior Engineer with Kubernetes exposure.",
			prompt.StageCoverLetter: "Dear Hiring Manager,\nI am excited to apply.",
		},
		errs: make(map[prompt.Stage]error),
	}
}

func stageForSampling(s llm.Sampling) prompt.Stage {
	for _, stage := range prompt.Stages() {
		if fixed, ok := prompt.Sampling(stage); ok && fixed.MaxTokens == s.MaxTokens {
			return stage
		}
	}
	return ""
}

func (f *fakeClient) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	stage := stageForSampling(req.Sampling)
	f.prompts[stage] = req.Prompt
	if err := f.errs[stage]; err != nil {
		return llm.Response{Elapsed: time.Millisecond}, err
	}
	return llm.Response{Text: f.responses[stage], Elapsed: time.Millisecond}, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Model() string { return "fake-model" }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(client llm.Client) *Service {
	return NewService(client, NewCache(), "ollama", nil)
}

const (
	testResume = "Jane Doe\nEngineer with Go and Docker experience."
	testJob    = "Looking for an engineer with Go, Kubernetes, and Terraform."
)

func TestAnalyzeFullPipeline(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(), testResume, testJob, Options{CoverLetter: true, Tone: "formal"})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !result.MatchScore.InRange() || result.MatchScore.Value != 87 {
		t.Fatalf("unexpected score: %+v", result.MatchScore)
	}
	if len(result.KeywordGap) != 2 || result.KeywordGap[0] != "Kubernetes" || result.KeywordGap[1] != "Terraform" {
		t.Fatalf("unexpected keyword gap: %v", result.KeywordGap)
	}
	if !strings.Contains(result.OptimizedResume, "Senior Engineer") {
		t.Fatalf("unexpected optimized resume: %q", result.OptimizedResume)
	}
	if !strings.Contains(result.CoverLetter, "Dear Hiring Manager") {
		t.Fatalf("unexpected cover letter: %q", result.CoverLetter)
	}
	if result.ID == "" || result.Fingerprint == "" {
		t.Fatal("expected ID and fingerprint to be set")
	}
	if result.Model != "fake-model" {
		t.Fatalf("unexpected model: %s", result.Model)
	}
	if client.callCount() != 4 {
		t.Fatalf("expected 4 backend calls, got %d", client.callCount())
	}
	for _, stage := range prompt.Stages() {
		if _, ok := result.StageLatencies[stage]; !ok {
			t.Fatalf("missing latency for stage %s", stage)
		}
	}

	// Later stages receive the keyword gap and the requested tone.
	if !strings.Contains(client.prompts[prompt.StageRewrite], "Kubernetes, Terraform") {
		t.Fatal("rewrite prompt is missing the keyword gap")
	}
	if !strings.Contains(client.prompts[prompt.StageCoverLetter], "formal") {
		t.Fatal("cover letter prompt is missing the tone")
	}
}

func TestAnalyzeWithoutCoverLetter(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.CoverLetter != "" {
		t.Fatalf("expected no cover letter, got %q", result.CoverLetter)
	}
	if client.callCount() != 3 {
		t.Fatalf("expected 3 backend calls, got %d", client.callCount())
	}
}

func TestAnalyzeSecondCallServedFromCache(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	first, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("first analyze failed: %v", err)
	}
	second, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("second analyze failed: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected cached result, got a fresh run: %s vs %s", first.ID, second.ID)
	}
	if client.callCount() != 3 {
		t.Fatalf("cached analyze must not touch the backend, got %d calls", client.callCount())
	}
}

func TestAnalyzeWhitespaceVariantsShareOneResult(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	first, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("first analyze failed: %v", err)
	}
	second, err := svc.Analyze(context.Background(), "  "+testResume+"\n\n", testJob+"   ", Options{})
	if err != nil {
		t.Fatalf("second analyze failed: %v", err)
	}

	if first.Fingerprint != second.Fingerprint {
		t.Fatal("normalization should make whitespace variants share a fingerprint")
	}
	if client.callCount() != 3 {
		t.Fatalf("expected the variant to be served from cache, got %d calls", client.callCount())
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	_, err := svc.Analyze(context.Background(), "   \n\t", testJob, Options{})
	if !errors.Is(err, normalize.ErrEmptyInput) {
		t.Fatalf("expected empty-input error, got %v", err)
	}
	if !IsInputError(err) {
		t.Fatal("expected IsInputError to report true")
	}
	if client.callCount() != 0 {
		t.Fatalf("empty input must not touch the backend, got %d calls", client.callCount())
	}
}

func TestAnalyzeScoreParseFailureDegrades(t *testing.T) {
	client := newFakeClient()
	client.responses[prompt.StageScore] = "I cannot rate this resume."
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.MatchScore.Scored {
		t.Fatalf("expected unscored result, got %+v", result.MatchScore)
	}
	if result.MatchScore.Value != ScoreUnscored {
		t.Fatalf("expected sentinel %d, got %d", ScoreUnscored, result.MatchScore.Value)
	}
	if result.OptimizedResume == "" {
		t.Fatal("pipeline should continue past a score parse failure")
	}
}

func TestAnalyzeKeywordGapFailureDegradesToEmpty(t *testing.T) {
	client := newFakeClient()
	client.errs[prompt.StageKeywordGap] = errors.New("transient decode error")
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.KeywordGap == nil || len(result.KeywordGap) != 0 {
		t.Fatalf("expected empty keyword gap, got %v", result.KeywordGap)
	}
	if !strings.Contains(client.prompts[prompt.StageRewrite], "(none identified)") {
		t.Fatal("rewrite prompt should mark the gap as empty")
	}
}

func TestAnalyzeFiltersCoveredKeywords(t *testing.T) {
	client := newFakeClient()
	client.responses[prompt.StageKeywordGap] = "Python\nSQL\nAWS"
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(),
		"Experienced backend engineer with Java and SQL",
		"Seeking engineer skilled in Python, SQL, and AWS",
		Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if len(result.KeywordGap) != 2 || result.KeywordGap[0] != "Python" || result.KeywordGap[1] != "AWS" {
		t.Fatalf("expected [Python AWS], got %v", result.KeywordGap)
	}
}

func TestAnalyzeKeepsKeywordsOnSubstringOverlap(t *testing.T) {
	client := newFakeClient()
	client.responses[prompt.StageKeywordGap] = "Java\nAWS"
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(),
		"Senior JavaScript developer at a product company",
		"Seeking engineer skilled in Java and AWS",
		Options{})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if len(result.KeywordGap) != 2 || result.KeywordGap[0] != "Java" || result.KeywordGap[1] != "AWS" {
		t.Fatalf("expected JavaScript not to cover Java, got %v", result.KeywordGap)
	}
}

func TestAnalyzeRewriteFailureIsFatal(t *testing.T) {
	client := newFakeClient()
	client.responses[prompt.StageRewrite] = ""
	svc := newTestService(client)

	_, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	var rewriteErr *RewriteFailureError
	if !errors.As(err, &rewriteErr) {
		t.Fatalf("expected RewriteFailureError, got %v", err)
	}
	if rewriteErr.Score.Value != 87 || !rewriteErr.Score.Scored {
		t.Fatalf("expected partial score to travel with the error, got %+v", rewriteErr.Score)
	}
	if len(rewriteErr.KeywordGap) != 2 {
		t.Fatalf("expected partial keyword gap, got %v", rewriteErr.KeywordGap)
	}
	if svc.Cache().Len() != 0 {
		t.Fatal("failed analysis must not be cached")
	}
}

func TestAnalyzeFatalBackendErrorAborts(t *testing.T) {
	client := newFakeClient()
	client.errs[prompt.StageScore] = llm.ErrConnection
	svc := newTestService(client)

	_, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if !errors.Is(err, llm.ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if stageErr.Stage != prompt.StageScore {
		t.Fatalf("expected score stage, got %s", stageErr.Stage)
	}
	if client.callCount() != 1 {
		t.Fatalf("fatal error must abort the pipeline, got %d calls", client.callCount())
	}
	if svc.Cache().Len() != 0 {
		t.Fatal("failed analysis must not be cached")
	}
}

func TestAnalyzeModelNotFoundAborts(t *testing.T) {
	client := newFakeClient()
	client.errs[prompt.StageKeywordGap] = llm.ErrModelNotFound
	svc := newTestService(client)

	_, err := svc.Analyze(context.Background(), testResume, testJob, Options{})
	if !errors.Is(err, llm.ErrModelNotFound) {
		t.Fatalf("expected model-not-found error, got %v", err)
	}
	if client.callCount() != 2 {
		t.Fatalf("expected abort after the keyword gap stage, got %d calls", client.callCount())
	}
}

func TestAnalyzeCoverLetterFailureOmitsLetter(t *testing.T) {
	client := newFakeClient()
	client.responses[prompt.StageCoverLetter] = "   "
	svc := newTestService(client)

	result, err := svc.Analyze(context.Background(), testResume, testJob, Options{CoverLetter: true})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if result.CoverLetter != "" {
		t.Fatalf("expected the letter to be omitted, got %q", result.CoverLetter)
	}
	if result.OptimizedResume == "" {
		t.Fatal("rewrite output should survive a cover letter failure")
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	client := newFakeClient()
	svc := newTestService(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, testResume, testJob, Options{})
	if !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("expected timeout classification for cancelled context, got %v", err)
	}
	if svc.Cache().Len() != 0 {
		t.Fatal("cancelled analysis must not be cached")
	}
}
