// Package jsonresult turns raw database/sql query results into the JSON row representation this
// module's dispatch layer hands back to callers in QueryResult.
package jsonresult

import (
	"fmt"
	"strings"
)

// Escape returns s with the bytes JSON requires to be escaped rewritten: '"' -> \", '\' -> \\,
// newline -> \n, carriage return -> \r, tab -> \t, and any other control byte (< 0x20) as a
// \u00XX escape. Bytes >= 0x20 pass through unchanged, including multi-byte UTF-8 sequences.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	writeEscaped(&b, s)
	return b.String()
}

// EscapeInto writes the JSON-escaped form of input into output, followed by a NUL terminator,
// mirroring a buffer-oriented escape contract: it returns the number of bytes written (excluding
// the terminator), or -1 if output is nil, empty, or too small to hold the escaped bytes plus
// the terminator.
func EscapeInto(output []byte, input string) int {
	if len(output) == 0 {
		return -1
	}

	var b strings.Builder
	b.Grow(len(input))
	writeEscaped(&b, input)
	escaped := b.String()

	if len(escaped)+1 > len(output) {
		return -1
	}

	n := copy(output, escaped)
	output[n] = 0

	return n
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(b, `\u%04x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
}
