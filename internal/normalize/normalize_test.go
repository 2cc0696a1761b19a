package normalize

import (
	"errors"
	"testing"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "Experienced   backend\tengineer", "Experienced backend engineer"},
		{"blank line runs", "Summary\n\n\n\nSkills", "Summary\nSkills"},
		{"crlf", "line one\r\nline two", "line one\nline two"},
		{"leading and trailing", "   padded text \n ", "padded text"},
		{"trailing spaces before newline", "alpha  \nbeta", "alpha\nbeta"},
		{"bom and control chars", "\uFEFFname\x00\x07 here", "name here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t", "\x00\x01\x02"} {
		if _, err := Normalize(in); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput for %q, got %v", in, err)
		}
	}
}

func TestNormalizeIsPure(t *testing.T) {
	in := "Experienced backend engineer with Java and SQL"
	first, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	second, err := Normalize(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output on repeat, got %q then %q", first, second)
	}
}
