package analyses

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseFailure reasons. Parse failures are degradations, not errors: the
// orchestrator lowers result fidelity and continues where the policy allows.
const (
	ReasonNoNumberFound = "no_number_found"
	ReasonEmptyOutput   = "empty_output"
	ReasonNoContent     = "no_alphabetic_content"
)

// ParseFailure reports that a stage's free-text output could not be read into
// the expected shape.
type ParseFailure struct {
	Reason string
}

func (f *ParseFailure) Error() string {
	return "parse failure: " + f.Reason
}

// parseScore locates the first integer in the backend's output and clamps it
// to [0,100]. The backend is asked for a bare number but will sometimes wrap
// it in prose ("I'd rate this 85 out of 100").
func parseScore(raw string) (int, error) {
	text := stripCodeFences(raw)

	start := -1
	for i, r := range text {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, &ParseFailure{Reason: ReasonNoNumberFound}
	}

	end := start
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}

	value, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, &ParseFailure{Reason: ReasonNoNumberFound}
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return value, nil
}

// parseKeywordGap splits the backend's output on common list delimiters,
// strips enumeration artifacts, and deduplicates case-insensitively while
// preserving first-seen casing. An empty result is a valid empty gap.
func parseKeywordGap(raw string) []string {
	text := stripCodeFences(raw)

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})

	seen := make(map[string]struct{}, len(parts))
	var gap []string
	for _, part := range parts {
		keyword := stripEnumeration(part)
		if keyword == "" || !hasAlphabetic(keyword) {
			continue
		}
		key := strings.ToLower(keyword)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		gap = append(gap, keyword)
	}
	return gap
}

// filterPresent drops keywords whose every word already appears as a whole
// token in the resume, case-insensitively. The backend is asked for absent
// terms only but occasionally lists covered ones too. Matching is per token
// so "JavaScript" on the resume does not cover a "Java" keyword.
func filterPresent(gap []string, resume string) []string {
	tokens := make(map[string]struct{})
	for _, tok := range tokenize(resume) {
		tokens[tok] = struct{}{}
	}

	out := make([]string, 0, len(gap))
	for _, keyword := range gap {
		if keywordCovered(keyword, tokens) {
			continue
		}
		out = append(out, keyword)
	}
	return out
}

func keywordCovered(keyword string, tokens map[string]struct{}) bool {
	words := tokenize(keyword)
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		if _, ok := tokens[word]; !ok {
			return false
		}
	}
	return true
}

// tokenize lowercases and splits on non-word runes. '+' and '#' stay part of
// a token so "C++" and "C#" are distinct from "C".
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// parseFreeText treats the entire trimmed output as the result. It fails only
// when the output is empty or clearly an error echo with no letters in it;
// free-text stages degrade gracefully rather than hard-fail on format drift.
func parseFreeText(raw string) (string, error) {
	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return "", &ParseFailure{Reason: ReasonEmptyOutput}
	}
	if !hasAlphabetic(text) {
		return "", &ParseFailure{Reason: ReasonNoContent}
	}
	return text, nil
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// output in despite instructions.
func stripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```")
		if idx := strings.IndexByte(out, '\n'); idx >= 0 && !strings.ContainsAny(out[:idx], " \t") {
			// language tag on the opening fence
			out = out[idx+1:]
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// stripEnumeration drops bullet markers, list numbering, and surrounding
// punctuation from one list item.
func stripEnumeration(s string) string {
	out := strings.TrimSpace(s)
	out = strings.TrimLeft(out, "-*•·◦> \t")
	out = strings.TrimSpace(out)

	// "1." / "12)" numbering
	i := 0
	for i < len(out) && out[i] >= '0' && out[i] <= '9' {
		i++
	}
	if i > 0 && i < len(out) && (out[i] == '.' || out[i] == ')') {
		out = out[i+1:]
	}

	out = strings.Trim(out, ` "'.:`)
	return strings.TrimSpace(out)
}

func hasAlphabetic(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
