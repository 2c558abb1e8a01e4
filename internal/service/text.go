package service

import (
	"strings"
	"unicode/utf8"
)

// cleanText prepares extracted document text for the prompt: invalid UTF-8
// bytes and NUL characters are dropped and line endings become "\n".
func cleanText(s string) string {
	if utf8.ValidString(s) && !strings.ContainsAny(s, "\x00\r") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == utf8.RuneError && size == 1, r == 0:
			continue
		case r == '\r':
			if !strings.HasPrefix(s, "\n") {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
