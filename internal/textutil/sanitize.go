package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameBytes is the longest name most filesystems accept.
const MaxFileNameBytes = 255

// SanitizeFileName makes name safe to use as a single path component.
// Separators and similar punctuation become "-", quoting and shell
// metacharacters plus control characters are dropped, and the result is
// trimmed and capped at MaxFileNameBytes without splitting a rune. Names
// that reduce to "", "." or ".." yield "".
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*`, r):
			return '-'
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
	name = strings.TrimSpace(name)
	for len(name) > MaxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
