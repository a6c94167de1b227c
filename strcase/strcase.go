// Package strcase converts identifier-like strings between common naming conventions.
package strcase

import "strings"

// Snake converts s from (lower or upper) camel case to snake_case.
func Snake(s string) string {
	return convert(s, '_', false)
}

// ScreamingSnake converts s from (lower or upper) camel case to SCREAMING_SNAKE_CASE.
func ScreamingSnake(s string) string {
	return convert(s, '_', true)
}

// convert inserts sep before every upper-case rune that follows a lower-case rune or digit, or
// that precedes a lower-case rune in a run of upper-case runes (e.g. "HTTPServer" -> "http_server"),
// then folds the whole string to the requested case.
func convert(s string, sep byte, screaming bool) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)

	runes := []rune(s)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'

		if i > 0 && isUpper {
			prevLowerOrDigit := isLowerOrDigit(runes[i-1])
			nextIsLower := i+1 < len(runes) && isLower(runes[i+1])

			if prevLowerOrDigit || (nextIsLower && isUpperOrDigit(runes[i-1])) {
				b.WriteByte(sep)
			}
		}

		b.WriteRune(r)
	}

	out := b.String()
	if screaming {
		return strings.ToUpper(out)
	}

	return strings.ToLower(out)
}

func isLower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isUpperOrDigit(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isLowerOrDigit(r rune) bool {
	return isLower(r) || (r >= '0' && r <= '9')
}
