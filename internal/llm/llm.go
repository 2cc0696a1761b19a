// Package llm abstracts the text-generation backend used by the analysis
// pipeline.
package llm

import (
	"context"
	"errors"
	"time"
)

// Sampling carries the sampling configuration for one generation call.
// Values are fixed per analysis stage at prompt-build time.
type Sampling struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"topP"`
	MaxTokens   int     `json:"maxTokens"`
}

// Request is one prompt plus its sampling configuration.
type Request struct {
	Prompt   string
	Sampling Sampling
}

// Response carries the raw generated text and call observability data. It is
// consumed immediately by the response parser and not retained.
type Response struct {
	Text    string
	Elapsed time.Duration
}

// Client is the backend-facing generation interface. Implementations must be
// safe for concurrent use.
type Client interface {
	// Generate sends the prompt and blocks until the backend responds, the
	// per-call timeout elapses, or ctx is cancelled.
	Generate(ctx context.Context, req Request) (Response, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Model returns the configured model identifier.
	Model() string
}

// Backend failure classification. The orchestrator maps these onto the
// analysis error taxonomy; none of them is retried automatically.
var (
	// ErrConnection means the backend is unreachable.
	ErrConnection = errors.New("backend unreachable")
	// ErrTimeout means the per-call deadline elapsed.
	ErrTimeout = errors.New("backend request timed out")
	// ErrModelNotFound means the backend does not have the requested model.
	ErrModelNotFound = errors.New("model not found")
	// ErrMalformedResponse means the backend returned a payload without the
	// expected shape, including a stream that ended before its terminator.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// RemediationHint returns a user-facing hint for a classified backend error,
// worded for the configured provider.
func RemediationHint(provider string, err error) string {
	switch {
	case errors.Is(err, ErrConnection):
		switch provider {
		case "ollama":
			return "start the backend service (ollama serve) and try again"
		case "gemini":
			return "verify GEMINI_API_KEY is valid and the Gemini API is reachable"
		default:
			return "check that the backend is reachable and try again"
		}
	case errors.Is(err, ErrTimeout):
		return "the backend took too long; try a smaller model or raise LLM_TIMEOUT_SECONDS"
	case errors.Is(err, ErrModelNotFound):
		switch provider {
		case "ollama":
			return "pull the model first (ollama pull <model>) or set LLM_MODEL to an installed one"
		default:
			return "set LLM_MODEL to a model available to this backend"
		}
	default:
		return ""
	}
}

// Fatal reports whether the error aborts the whole analysis rather than a
// single stage.
func Fatal(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrModelNotFound)
}
