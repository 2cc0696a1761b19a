package analyses

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"cvgenius-backend/internal/prompt"
)

// Fingerprint is a deterministic digest over an analysis request's normalized
// inputs and configuration, used as the cache key.
type Fingerprint string

// ComputeFingerprint digests the normalized resume and job text together with
// everything that changes the output: provider, model, the fixed per-stage
// sampling configuration, and the requested optional stages. Pure function.
func ComputeFingerprint(resume, job, provider, model string, opts Options) Fingerprint {
	var b strings.Builder
	writeField := func(s string) {
		fmt.Fprintf(&b, "%d:%s|", len(s), s)
	}

	writeField(resume)
	writeField(job)
	writeField(provider)
	writeField(model)
	for _, stage := range prompt.Stages() {
		s, _ := prompt.Sampling(stage)
		fmt.Fprintf(&b, "%s=%.3f/%.3f/%d|", stage, s.Temperature, s.TopP, s.MaxTokens)
	}
	fmt.Fprintf(&b, "cover=%t|", opts.CoverLetter)
	if opts.CoverLetter {
		writeField(opts.Tone)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}
