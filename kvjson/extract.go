package kvjson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/openjson/icu"
	"github.com/minios-linux/openjson/openstring"
	"github.com/minios-linux/openjson/structjson"
	"github.com/minios-linux/openjson/transcriber"
)

// Member names with a special meaning in STRUCTURED_JSON documents.
const (
	StringKey           = "string"
	ContextKey          = "context"
	DeveloperCommentKey = "developer_comment"
	CharacterLimitKey   = "character_limit"
)

// Member names of a Chrome message catalog entry.
const (
	MessageKey     = "message"
	DescriptionKey = "description"
)

// extractor holds the state of one Parse call.
type extractor struct {
	h       *Handler
	tr      *transcriber.Transcriber
	keys    map[string]struct{}
	strings []*openstring.OpenString
	order   int
}

func newExtractor(h *Handler, content string) *extractor {
	return &extractor{
		h:    h,
		tr:   transcriber.New(content),
		keys: make(map[string]struct{}),
	}
}

// EscapeKey escapes backslashes and dots in an object key so that it can be
// used as one segment of a dotted path.
func EscapeKey(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	return strings.ReplaceAll(key, ".", `\.`)
}

// container walks an object or array. nest is the key of the container
// itself; root is true for the top-level value, which has no key.
func (e *extractor) container(n *structjson.Node, nest string, root bool) error {
	switch n.Kind {
	case structjson.Object:
		for _, m := range n.Members {
			key := EscapeKey(m.Key)
			if !root {
				key = nest + "." + key
			}
			if err := e.claim(key, m.KeyPos); err != nil {
				return err
			}
			var err error
			switch e.h.variant {
			case structured:
				err = e.structuredMember(key, m.Value)
			case chrome:
				err = e.chromeMember(key, m, n)
			default:
				err = e.value(key, m.Value)
			}
			if err != nil {
				return err
			}
		}
	case structjson.Array:
		if e.h.variant == structured {
			return nil
		}
		for i, v := range n.Items {
			// Chrome catalogs only translate "message" members.
			if e.h.variant == chrome && v.Kind == structjson.String {
				continue
			}
			key := fmt.Sprintf("..%d..", i)
			if !root {
				key = nest + key
			}
			if err := e.value(key, v); err != nil {
				return err
			}
		}
	default:
		return &ParseError{Kind: KindStructure, Msg: msgInvalidStructure}
	}
	return nil
}

// flat extracts the messages of a CHROME_V3 catalog. Only members of the
// root object are looked at, and their names are used as keys unchanged.
func (e *extractor) flat(n *structjson.Node) error {
	if n.Kind != structjson.Object {
		return &ParseError{Kind: KindStructure, Msg: msgNotObject}
	}
	for _, m := range n.Members {
		if err := e.claim(m.Key, m.KeyPos); err != nil {
			return err
		}
		msg, ok := chromeMessage(m.Value)
		if !ok {
			continue
		}
		if err := e.extract(m.Key, msg, description(m.Value.Node)...); err != nil {
			return err
		}
	}
	return nil
}

// claim records key, failing if it was already seen in this document.
func (e *extractor) claim(key string, keyPos int) error {
	if _, dup := e.keys[key]; dup {
		line := lineAt(e.tr.Source(), keyPos)
		msg := fmt.Sprintf("Duplicate string key ('%s') in line %d", key, line)
		if e.h.variant == chromeV3 {
			msg = fmt.Sprintf("Key '%s' appears multiple times (line %d)", key, line)
		}
		return &ParseError{
			Kind: KindDuplicateKey,
			Key:  key,
			Line: line,
			Msg:  msg,
			Err:  ErrDuplicateKey,
		}
	}
	e.keys[key] = struct{}{}
	return nil
}

func (e *extractor) value(key string, v structjson.Value) error {
	switch v.Kind {
	case structjson.String:
		if isBlank(v) {
			return nil
		}
		return e.extract(key, v)
	case structjson.Object, structjson.Array:
		return e.container(v.Node, key, false)
	}
	// Numbers, booleans and null stay in the template.
	return nil
}

// structuredMember handles one member of a STRUCTURED_JSON object. Objects
// with a "string" member are extracted as a whole; other objects are
// searched recursively.
func (e *extractor) structuredMember(key string, v structjson.Value) error {
	if v.Kind != structjson.Object {
		return nil
	}
	s, ok := v.Node.Child(StringKey)
	if !ok || s.Kind != structjson.String {
		return e.container(v.Node, key, false)
	}
	if isBlank(s) {
		return nil
	}
	return e.extract(key, s, metadata(v.Node)...)
}

// chromeMember handles one member of a CHROME object. Non-blank "message"
// strings are extracted; other strings stay in the template.
func (e *extractor) chromeMember(key string, m structjson.Member, parent *structjson.Node) error {
	if m.Value.Kind != structjson.String {
		return e.value(key, m.Value)
	}
	if m.Key != MessageKey || isBlank(m.Value) {
		return nil
	}
	return e.extract(key, m.Value, description(parent)...)
}

// chromeMessage returns the "message" string of a catalog entry.
func chromeMessage(v structjson.Value) (structjson.Value, bool) {
	if v.Kind != structjson.Object {
		return structjson.Value{}, false
	}
	msg, ok := v.Node.Child(MessageKey)
	if !ok || msg.Kind != structjson.String {
		return structjson.Value{}, false
	}
	return msg, true
}

// description turns the "description" sibling of a message into a developer
// comment.
func description(n *structjson.Node) []openstring.Option {
	if v, ok := n.Child(DescriptionKey); ok && v.Kind == structjson.String {
		return []openstring.Option{openstring.WithDeveloperComment(v.Text())}
	}
	return nil
}

// metadata reads translator metadata from the siblings of a "string" member.
func metadata(n *structjson.Node) []openstring.Option {
	var opts []openstring.Option
	if v, ok := n.Child(ContextKey); ok && v.Kind == structjson.String {
		opts = append(opts, openstring.WithContext(v.Text()))
	}
	if v, ok := n.Child(DeveloperCommentKey); ok && v.Kind == structjson.String {
		opts = append(opts, openstring.WithDeveloperComment(v.Text()))
	}
	if v, ok := n.Child(CharacterLimitKey); ok && v.Kind == structjson.Scalar {
		if limit, err := strconv.Atoi(v.Raw); err == nil {
			opts = append(opts, openstring.WithCharacterLimit(limit))
		}
	}
	return opts
}

// extract creates the OpenString for a string value and writes its
// placeholder into the template. Plural blocks keep their ICU header in the
// template; only the item list is replaced.
func (e *extractor) extract(key string, v structjson.Value, opts ...openstring.Option) error {
	block, err := icu.Parse(key, v.Raw)
	if err != nil {
		return &ParseError{
			Kind: KindPlural,
			Key:  key,
			Line: lineAt(e.tr.Source(), v.Pos),
			Msg:  err.Error(),
			Err:  err,
		}
	}

	var (
		s           *openstring.OpenString
		start, size int
	)
	if block != nil {
		s = openstring.NewPluralized(key, block.Strings, e.order, opts...)
		start, size = v.Pos+block.Start, block.End-block.Start
	} else {
		s = openstring.New(key, v.Raw, e.order, opts...)
		start, size = v.Pos, len(v.Raw)
	}
	e.order++

	if err := e.tr.CopyUntil(start); err != nil {
		return fmt.Errorf("extract %q: %w", key, err)
	}
	e.tr.Add(s.TemplateReplacement())
	if err := e.tr.Skip(size); err != nil {
		return fmt.Errorf("extract %q: %w", key, err)
	}

	e.strings = append(e.strings, s)
	return nil
}

// isBlank reports whether a string value is empty or whitespace only. Such
// values are never extracted.
func isBlank(v structjson.Value) bool {
	return strings.TrimSpace(v.Text()) == ""
}
