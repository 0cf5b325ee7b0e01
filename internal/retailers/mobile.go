package retailers

import (
	"strings"
	"unicode"
)

// NormalizeMobile keeps a leading '+' and the digits of a phone number.
func NormalizeMobile(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
