// Package icu recognizes ICU MessageFormat plural blocks embedded in string
// values and splits them into per-category content.
//
// Only the plural argument type is understood:
//
//	{ item_count, plural, one {{cnt} file} other {{cnt} files} }
//
// The offset feature and explicit value selectors (=0, =1) are not
// supported. Content may contain nested braces; they are matched by depth.
package icu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/openjson/openstring"
)

// PluralArg is the argument type that marks a plural block.
const PluralArg = "plural"

var (
	// ErrInvalidFormat is wrapped when a plural block has unbalanced braces
	// or a malformed item list.
	ErrInvalidFormat = errors.New("invalid plural format")
	// ErrInvalidRule is wrapped when a plural block uses categories outside
	// the supported rule set.
	ErrInvalidRule = errors.New("invalid plural rule")
)

// Error describes a plural block that looks like ICU but cannot be used.
type Error struct {
	Key   string
	Rules []string
	err   error
}

func (e *Error) Error() string {
	if errors.Is(e.err, ErrInvalidRule) {
		return fmt.Sprintf("Invalid plural rule(s): %q in pluralized entry with key: %s",
			strings.Join(e.Rules, ", "), e.Key)
	}
	return fmt.Sprintf("Invalid format of pluralized entry with key: %q", e.Key)
}

func (e *Error) Unwrap() error { return e.err }

// Block is a recognized plural block.
type Block struct {
	// Arg is the plural argument name, e.g. "item_count".
	Arg string
	// Start and End delimit the item list inside the parsed value, from the
	// first category keyword to the closing brace of the last item.
	Start int
	End   int
	// Strings maps rule numbers to the raw content between the item braces.
	Strings map[int]string
}

// Parse inspects the raw (escaped) string value of the entry with the given
// key. It returns (nil, nil) when value is not a plural block, so the caller
// can treat it as a regular string.
func Parse(key, value string) (*Block, error) {
	i := skipSpace(value, 0)
	if i >= len(value) || value[i] != '{' {
		return nil, nil
	}
	i = skipSpace(value, i+1)

	arg, i := word(value, i, isIdentByte)
	if arg == "" {
		return nil, nil
	}
	i = skipSpace(value, i)
	if i >= len(value) || value[i] != ',' {
		return nil, nil
	}
	i = skipSpace(value, i+1)

	argType, i := word(value, i, isTypeByte)
	if argType == "" {
		return nil, nil
	}
	i = skipSpace(value, i)
	if i >= len(value) || value[i] != ',' {
		return nil, nil
	}
	if argType != PluralArg {
		return nil, nil
	}

	b := &Block{Arg: arg, Start: -1, Strings: make(map[int]string)}
	var invalid []string
	formatErr := &Error{Key: key, err: ErrInvalidFormat}

	i++
	for {
		i = skipSpace(value, i)
		if i >= len(value) {
			return nil, formatErr
		}
		if value[i] == '}' {
			// Text after the block makes the whole value a regular string.
			if skipSpace(value, i+1) != len(value) {
				return nil, nil
			}
			break
		}

		kwStart := i
		for i < len(value) && spaceWidth(value, i) == 0 && value[i] != '{' && value[i] != '}' {
			i++
		}
		keyword := value[kwStart:i]
		i = skipSpace(value, i)
		if keyword == "" || i >= len(value) || value[i] != '{' {
			return nil, formatErr
		}

		closing := matchBrace(value, i)
		if closing < 0 {
			return nil, formatErr
		}
		if b.Start < 0 {
			b.Start = kwStart
		}
		b.End = closing + 1

		if rule, ok := openstring.RuleNumber(keyword); ok {
			if _, dup := b.Strings[rule]; dup {
				return nil, formatErr
			}
			b.Strings[rule] = value[i+1 : closing]
		} else {
			invalid = append(invalid, keyword)
		}
		i = closing + 1
	}

	if len(invalid) > 0 {
		return nil, &Error{Key: key, Rules: invalid, err: ErrInvalidRule}
	}
	if len(b.Strings) == 0 {
		return nil, formatErr
	}
	return b, nil
}

// Serialize renders plural content back into ICU item syntax, in ascending
// rule order: "one {file} other {files}".
func Serialize(strs map[int]string) string {
	var b strings.Builder
	for _, rule := range openstring.Rules() {
		text, ok := strs[rule]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(openstring.RuleName(rule))
		b.WriteString(" {")
		b.WriteString(text)
		b.WriteByte('}')
	}
	return b.String()
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// spaceWidth returns the width of the whitespace at s[i]: 1 for a literal
// space, tab, CR or LF, 2 for an escaped \n, \r or \t, 0 otherwise.
func spaceWidth(s string, i int) int {
	switch s[i] {
	case ' ', '\t', '\n', '\r':
		return 1
	case '\\':
		if i+1 < len(s) {
			switch s[i+1] {
			case 'n', 'r', 't':
				return 2
			}
		}
	}
	return 0
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		w := spaceWidth(s, i)
		if w == 0 {
			break
		}
		i += w
	}
	return i
}

func word(s string, i int, accept func(byte) bool) (string, int) {
	start := i
	for i < len(s) && accept(s[i]) {
		i++
	}
	return s[start:i], i
}

func isIdentByte(c byte) bool {
	return isTypeByte(c) || (c >= '0' && c <= '9') || c == '-'
}

func isTypeByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
