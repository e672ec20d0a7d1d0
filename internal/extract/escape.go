package extract

import (
	"strings"

	"github.com/kayz/cadforge/internal/logger"
)

// DecodeEscapes resolves literal two-character escape sequences embedded in
// a string value into real characters. The JSON parse already un-escaped
// the payload once; this second pass handles sequences the model
// double-escaped when asked to emit source code inside a JSON string.
//
// Decoding is best-effort: an unknown escape or a dangling trailing
// backslash leaves the input untouched rather than failing extraction.
func DecodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			logger.Warn("escape decoding failed (dangling backslash), keeping raw string")
			return s
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			logger.Warn("escape decoding failed (unknown sequence \\%c), keeping raw string", s[i])
			return s
		}
	}
	return b.String()
}

// EncodeEscapes is the inverse of DecodeEscapes: real control characters
// and quotes become their two-character escaped form. For any string that
// DecodeEscapes fully decoded, encoding reproduces the original input.
func EncodeEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
