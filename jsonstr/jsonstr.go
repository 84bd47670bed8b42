// Package jsonstr converts between raw text and the escaped form used inside
// JSON string literals.
//
// Unlike encoding/json, Unescape never fails: malformed sequences found in
// real-world files are passed through instead of rejected.
package jsonstr

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Escape returns s with quotes, backslashes and the common control
// characters replaced by their JSON escape sequences. All other bytes,
// including non-ASCII and invalid UTF-8 ones, are copied unchanged.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape is the inverse of Escape. It also understands `\/` and `\uXXXX`.
//
// A `\u` that is not followed by exactly four hex digits, or that encodes a
// lone surrogate, is emitted literally and scanning resumes right after the
// `u`. Any other `\X` yields X. A trailing backslash is kept.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte('\\')
			i++
			continue
		}

		next := s[i+1]
		switch next {
		case '"', '/', '\\':
			b.WriteByte(next)
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'u':
			r, n := decodeUnicode(s[i:])
			if n == 0 {
				b.WriteString(`\u`)
				i += 2
				continue
			}
			b.WriteRune(r)
			i += n
		default:
			// Drop the backslash, keep the (possibly multi-byte) character.
			_, size := utf8.DecodeRuneInString(s[i+1:])
			b.WriteString(s[i+1 : i+1+size])
			i += 1 + size
		}
	}
	return b.String()
}

// decodeUnicode decodes a `\uXXXX` sequence (or a surrogate pair of two such
// sequences) at the start of s. It returns the number of bytes consumed, or
// zero when the sequence does not decode to a single code point.
func decodeUnicode(s string) (rune, int) {
	r, ok := hex4(s)
	if !ok {
		return 0, 0
	}
	if !utf16.IsSurrogate(r) {
		return r, 6
	}
	if r < 0xdc00 {
		if lo, ok := hex4(s[6:]); ok {
			if dec := utf16.DecodeRune(r, lo); dec != utf8.RuneError {
				return dec, 12
			}
		}
	}
	return 0, 0
}

// hex4 parses `\uXXXX` at the start of s.
func hex4(s string) (rune, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}
	var r rune
	for _, c := range []byte(s[2:6]) {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(v)
	}
	return r, true
}
