// Package normalize cleans raw extracted resume and job-description text
// before any prompt construction.
package normalize

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyInput is returned when normalization produces no text, e.g. when
// extraction ran against a scanned-image PDF.
var ErrEmptyInput = errors.New("no text extracted")

// Normalize collapses runs of spaces and tabs to single spaces, collapses
// blank-line runs, strips control characters and the BOM, and trims the
// result. Line breaks are preserved because the resume's line structure
// carries section boundaries the prompts rely on.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(dropControl, raw)

	var lines []string
	for _, line := range strings.FieldsFunc(cleaned, isLineBreak) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}

	out := strings.Join(lines, "\n")
	if out == "" {
		return "", ErrEmptyInput
	}
	return out, nil
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

func dropControl(r rune) rune {
	if r == '\n' || r == '\r' || r == '\t' {
		return r
	}
	if r == '\uFEFF' || unicode.IsControl(r) {
		return -1
	}
	return r
}
