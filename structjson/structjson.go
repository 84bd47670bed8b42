// Package structjson is a minimal, position-aware JSON parser.
//
// It classifies values without decoding them: string values are returned as
// the raw (still escaped) bytes between their quotes, together with their
// byte offsets, so that callers can copy or replace the exact original text.
// Only documents whose top-level value is an object or an array are accepted.
package structjson

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/openjson/jsonstr"
)

// ErrNotContainer is wrapped by the error returned when the top-level value
// is not an object or an array.
var ErrNotContainer = errors.New("top-level value is not an object or array")

// Kind classifies a JSON value.
type Kind int

const (
	Object Kind = iota
	Array
	String
	// Scalar covers numbers, true, false and null.
	Scalar
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Scalar:
		return "scalar"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// Value is a single JSON value found in the source.
type Value struct {
	Kind Kind
	// Pos is the offset of the value. For strings it points just past the
	// opening quote.
	Pos int
	// Raw is the escaped content of a string, or the literal text of a scalar.
	Raw string
	// Node is set for objects and arrays.
	Node *Node
}

// Text returns the decoded content of a string value.
func (v Value) Text() string {
	if v.Kind != String {
		return v.Raw
	}
	return jsonstr.Unescape(v.Raw)
}

// Start returns the offset of the first byte of the value token, including
// the opening quote of a string.
func (v Value) Start() int {
	switch v.Kind {
	case String:
		return v.Pos - 1
	case Object, Array:
		return v.Node.Start
	}
	return v.Pos
}

// End returns the offset just past the value token.
func (v Value) End() int {
	switch v.Kind {
	case String:
		return v.Pos + len(v.Raw) + 1
	case Object, Array:
		return v.Node.End
	}
	return v.Pos + len(v.Raw)
}

// Member is one key/value pair of an object.
type Member struct {
	// Key is the decoded key.
	Key string
	// RawKey is the key as written in the source.
	RawKey string
	// KeyPos points just past the key's opening quote.
	KeyPos int
	Value  Value
}

// Node is an object or an array. [Start, End) covers the whole container,
// delimiters included.
type Node struct {
	Kind    Kind
	Start   int
	End     int
	Members []Member
	Items   []Value
}

// Len returns the number of members or items.
func (n *Node) Len() int {
	if n.Kind == Object {
		return len(n.Members)
	}
	return len(n.Items)
}

// Child returns the value of the first member with the given decoded key.
func (n *Node) Child(key string) (Value, bool) {
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// SyntaxError describes malformed input.
type SyntaxError struct {
	Msg    string
	Line   int
	Offset int
	err    error
}

func (e *SyntaxError) Error() string { return e.Msg }

func (e *SyntaxError) Unwrap() error { return e.err }

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

type parser struct {
	src string
}

// Parse parses source and returns its top-level container.
func Parse(source string) (*Node, error) {
	p := &parser{src: source}

	pos := p.skipSpace(0)
	if pos >= len(source) || (source[pos] != '{' && source[pos] != '[') {
		found := "EOF"
		if pos < len(source) {
			found = "`" + string(source[pos]) + "`"
		}
		return nil, &SyntaxError{
			Msg:    fmt.Sprintf("Was expecting whitespace or one of `[{` on line %d, found %s instead", p.line(pos), found),
			Line:   p.line(pos),
			Offset: pos,
			err:    ErrNotContainer,
		}
	}

	v, end, err := p.value(pos)
	if err != nil {
		return nil, err
	}
	if rest := p.skipSpace(end); rest < len(source) {
		return nil, p.errorf(rest, "unexpected content after top-level value")
	}
	return v.Node, nil
}

func (p *parser) value(pos int) (Value, int, error) {
	if pos >= len(p.src) {
		return Value{}, pos, p.errorf(pos, "unexpected end of input, was expecting a value")
	}
	switch c := p.src[pos]; {
	case c == '{':
		return p.object(pos)
	case c == '[':
		return p.array(pos)
	case c == '"':
		raw, end, err := p.str(pos)
		if err != nil {
			return Value{}, pos, err
		}
		return Value{Kind: String, Pos: pos + 1, Raw: raw}, end, nil
	default:
		return p.scalar(pos)
	}
}

func (p *parser) object(pos int) (Value, int, error) {
	node := &Node{Kind: Object, Start: pos}

	i := p.skipSpace(pos + 1)
	if i < len(p.src) && p.src[i] == '}' {
		node.End = i + 1
		return Value{Kind: Object, Pos: pos, Node: node}, node.End, nil
	}

	for {
		if i >= len(p.src) || p.src[i] != '"' {
			return Value{}, i, p.expected(i, `"`)
		}
		rawKey, end, err := p.str(i)
		if err != nil {
			return Value{}, i, err
		}
		keyPos := i + 1

		i = p.skipSpace(end)
		if i >= len(p.src) || p.src[i] != ':' {
			return Value{}, i, p.expected(i, ":")
		}
		i = p.skipSpace(i + 1)

		v, end, err := p.value(i)
		if err != nil {
			return Value{}, i, err
		}
		node.Members = append(node.Members, Member{
			Key:    jsonstr.Unescape(rawKey),
			RawKey: rawKey,
			KeyPos: keyPos,
			Value:  v,
		})

		i = p.skipSpace(end)
		if i >= len(p.src) {
			return Value{}, i, p.expected(i, ",}")
		}
		switch p.src[i] {
		case ',':
			i = p.skipSpace(i + 1)
		case '}':
			node.End = i + 1
			return Value{Kind: Object, Pos: pos, Node: node}, node.End, nil
		default:
			return Value{}, i, p.expected(i, ",}")
		}
	}
}

func (p *parser) array(pos int) (Value, int, error) {
	node := &Node{Kind: Array, Start: pos}

	i := p.skipSpace(pos + 1)
	if i < len(p.src) && p.src[i] == ']' {
		node.End = i + 1
		return Value{Kind: Array, Pos: pos, Node: node}, node.End, nil
	}

	for {
		v, end, err := p.value(i)
		if err != nil {
			return Value{}, i, err
		}
		node.Items = append(node.Items, v)

		i = p.skipSpace(end)
		if i >= len(p.src) {
			return Value{}, i, p.expected(i, ",]")
		}
		switch p.src[i] {
		case ',':
			i = p.skipSpace(i + 1)
		case ']':
			node.End = i + 1
			return Value{Kind: Array, Pos: pos, Node: node}, node.End, nil
		default:
			return Value{}, i, p.expected(i, ",]")
		}
	}
}

// str scans the string literal whose opening quote is at pos. It returns
// the raw content and the offset just past the closing quote.
func (p *parser) str(pos int) (string, int, error) {
	i := pos + 1
	for i < len(p.src) {
		switch p.src[i] {
		case '\\':
			i += 2
		case '"':
			return p.src[pos+1 : i], i + 1, nil
		default:
			i++
		}
	}
	return "", pos, p.errorf(pos, "unterminated string starting on line %d", p.line(pos))
}

var literals = []string{"true", "false", "null"}

func (p *parser) scalar(pos int) (Value, int, error) {
	for _, lit := range literals {
		if strings.HasPrefix(p.src[pos:], lit) {
			return Value{Kind: Scalar, Pos: pos, Raw: lit}, pos + len(lit), nil
		}
	}

	i := pos
	for i < len(p.src) && strings.IndexByte("+-0123456789.eE", p.src[i]) >= 0 {
		i++
	}
	if i == pos {
		return Value{}, pos, p.expected(pos, `value ("{[0-9tfn-`)
	}
	return Value{Kind: Scalar, Pos: pos, Raw: p.src[pos:i]}, i, nil
}

func (p *parser) skipSpace(pos int) int {
	for pos < len(p.src) {
		switch p.src[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func (p *parser) line(pos int) int {
	if pos > len(p.src) {
		pos = len(p.src)
	}
	return strings.Count(p.src[:pos], "\n") + 1
}

func (p *parser) expected(pos int, what string) error {
	found := "EOF"
	if pos < len(p.src) {
		found = "`" + string(p.src[pos]) + "`"
	}
	return p.errorf(pos, "Was expecting one of `%s` on line %d, found %s instead", what, p.line(pos), found)
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Line:   p.line(pos),
		Offset: pos,
	}
}
