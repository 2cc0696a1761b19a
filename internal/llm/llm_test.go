package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRemediationHintPerProvider(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		err      error
		want     string
		absent   string
	}{
		{"ollama connection", "ollama", ErrConnection, "ollama serve", ""},
		{"gemini connection", "gemini", ErrConnection, "GEMINI_API_KEY", "ollama"},
		{"ollama model missing", "ollama", ErrModelNotFound, "ollama pull", ""},
		{"gemini model missing", "gemini", ErrModelNotFound, "LLM_MODEL", "ollama"},
		{"timeout is provider independent", "gemini", ErrTimeout, "LLM_TIMEOUT_SECONDS", "ollama"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hint := RemediationHint(tc.provider, fmt.Errorf("call failed: %w", tc.err))
			if !strings.Contains(hint, tc.want) {
				t.Fatalf("expected hint containing %q, got %q", tc.want, hint)
			}
			if tc.absent != "" && strings.Contains(strings.ToLower(hint), tc.absent) {
				t.Fatalf("hint for %s mentions %q: %q", tc.provider, tc.absent, hint)
			}
		})
	}
}

func TestRemediationHintUnclassified(t *testing.T) {
	if hint := RemediationHint("ollama", errors.New("boom")); hint != "" {
		t.Fatalf("expected no hint for an unclassified error, got %q", hint)
	}
}

func TestFatal(t *testing.T) {
	for _, err := range []error{ErrConnection, ErrTimeout, ErrModelNotFound} {
		if !Fatal(fmt.Errorf("wrapped: %w", err)) {
			t.Fatalf("expected %v to be fatal", err)
		}
	}
	if Fatal(ErrMalformedResponse) {
		t.Fatal("malformed responses are per-stage failures, not fatal")
	}
}
