package jsonstr

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"hεllo", "hεllo"},
		{`hεllo`, `h\\u03b5llo`},
		{`a"b`, `a\"b`},
		{"a/b", "a/b"},
		{"a\bb", `a\bb`},
		{"a\fb", `a\fb`},
		{"a\nb", `a\nb`},
		{"a\rb", `a\rb`},
		{"a\tb", `a\tb`},
	}
	for _, tc := range tests {
		if got := Escape(tc.in); got != tc.want {
			t.Fatalf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "simple", "simple"},
		{"non-ascii", "hεllo", "hεllo"},
		{"unicode escape", `hεllo`, "hεllo"},
		{"upper-case hex", `Été`, "Été"},
		{"quote", `a\"b`, `a"b`},
		{"solidus", `a\/b`, "a/b"},
		{"backspace", `a\bb`, "a\bb"},
		{"formfeed", `a\fb`, "a\fb"},
		{"newline", `a\nb`, "a\nb"},
		{"carriage return", `a\rb`, "a\rb"},
		{"tab", `a\tb`, "a\tb"},
		{"surrogate pair", `😀!`, "😀!"},
		{"lone surrogate", `\ud83dx`, `\ud83dx`},
		{"short unicode", `\u12`, `\u12`},
		{"bad hex", `\uzzzzA`, `\uzzzzA`},
		{"unknown escape drops backslash", `a\qb`, "aqb"},
		{"unknown multi-byte escape", `\ε`, "ε"},
		{"trailing backslash", `abc\`, `abc\`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Unescape(tc.in); got != tc.want {
				t.Fatalf("Unescape(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUnescapeInvertsEscape(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`quote " and backslash \ together`,
		"control\b\f\n\r\tchars",
		`looks like an escape: \n A`,
		"unicode ☃ and emoji 😀",
		`trailing \`,
		"invalid utf-8 a\xffb",
		"truncated \xe2\x98",
	}
	for _, in := range inputs {
		if got := Unescape(Escape(in)); got != in {
			t.Fatalf("Unescape(Escape(%q)) = %q", in, got)
		}
	}
}
