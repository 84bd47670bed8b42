package kvjson

import "strings"

// Separator patterns repaired after entries are removed, in the order they
// are tried: first member, last member, first item, last item, middle entry.
var emptyPatterns = [...][2]byte{
	{'{', ','},
	{',', '}'},
	{'[', ','},
	{',', ']'},
	{',', ','},
}

// cleanEmpties removes the separators left dangling when sections were cut
// out of a document:
//
//	{, "a": "b"}     -> { "a": "b"}
//	{"a": "b", }     -> {"a": "b"}
//	["a", , "b"]     -> ["a", "b"]
//
// Whitespace between the two characters is removed with them. Text inside
// string literals is never touched. After every substitution the search
// restarts with the first pattern.
func cleanEmpties(s string) string {
	// Each substitution shortens s by at least one byte.
	for limit := len(s) + 1; limit > 0; limit-- {
		changed := false
		for _, p := range emptyPatterns {
			start, end := findPair(s, p[0], p[1])
			if start < 0 {
				continue
			}
			keep := p[0]
			if keep == ',' {
				keep = p[1]
			}
			s = s[:start] + string(keep) + s[end:]
			changed = true
			break
		}
		if !changed {
			break
		}
	}
	return s
}

// findPair returns the span of the first a, optional JSON whitespace, b
// sequence outside string literals, or -1, -1.
func findPair(s string, a, b byte) (int, int) {
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c != a {
			continue
		}
		j := i + 1
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j < len(s) && s[j] == b {
			return i, j + 1
		}
	}
	return -1, -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// trimTrailingComma removes the comma left before the closing brace of the
// root object when its last member was removed:
//
//	{"a": "x", }     -> {"a": "x" }
//	"x",\n  \n}      -> "x"\n}
//
// Of the whitespace between the comma and the brace, only the part from the
// last line break on is kept.
func trimTrailingComma(s string) string {
	end := len(s)
	for end > 0 && isSpace(s[end-1]) {
		end--
	}
	if end == 0 || s[end-1] != '}' {
		return s
	}
	closing := end - 1
	i := closing
	for i > 0 && isSpace(s[i-1]) {
		i--
	}
	if i == 0 || s[i-1] != ',' {
		return s
	}
	gap := s[i:closing]
	if nl := strings.LastIndexByte(gap, '\n'); nl >= 0 {
		gap = gap[nl:]
	}
	return s[:i-1] + gap + s[closing:]
}
