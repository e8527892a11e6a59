package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  movie.mkv ":         "movie.mkv",
		"a/b\\c:d*e":           "a-b-c-d-e",
		`what?"<is>|this`:      "whatisthis",
		"":                     "",
		"   ":                  "",
		"Season 01: Episode 2": "Season 01- Episode 2",
		"tab\tand\x00nul":      "tabandnul",
		"..":                   "",
		".":                    "",
		"..?":                  "",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("é", 200) // 400 bytes
	got := SanitizeFileName(long)
	if len(got) > MaxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxFileNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8 after truncation, got %q", got)
	}
	if got != strings.Repeat("é", 127) {
		t.Fatalf("unexpected truncation result: %q", got)
	}
}
