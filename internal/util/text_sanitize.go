package util

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText strips what Postgres text columns reject: NUL bytes, other
// non-printing controls (except \n, \r, \t) and invalid UTF-8 sequences.
// Uploaded plain-text files and PDF extractor output both produce these.
// Paragraph structure (blank lines) is preserved for the chunker.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	r := make([]rune, 0, len(s))
	for i, ch := range s {
		if ch == utf8.RuneError {
			// Distinguish a literal U+FFFD from a decode failure.
			if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
				continue
			}
		}
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
