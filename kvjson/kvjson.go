// Package kvjson extracts translatable strings from key-value JSON documents
// and compiles translated strings back into them.
//
// Parse turns a document into a template, where every extracted value is
// replaced by a placeholder, and an ordered list of OpenStrings. Compile
// reverses the process. Everything outside the replaced spans (whitespace,
// key order, numbers, literals) is copied byte for byte.
//
// Four formats are supported. KEYVALUEJSON extracts every non-blank string
// value of the document. STRUCTURED_JSON only extracts objects carrying a
// "string" member and reads translator metadata from its siblings:
//
//	{"title": {"string": "Hello", "context": "menu", "character_limit": 20}}
//
// CHROME and CHROME_V3 read Chrome extension message catalogs, where the
// text lives in a "message" member and "description" is a note for the
// translator:
//
//	{"appName": {"message": "Notes", "description": "Extension name"}}
//
// CHROME walks the whole document and keys strings by their full path
// ("appName.message"). CHROME_V3 only looks at the members of the root
// object and keys strings by the member name as written ("appName").
package kvjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/minios-linux/openjson/jsonstr"
	"github.com/minios-linux/openjson/openstring"
	"github.com/minios-linux/openjson/structjson"
)

// Format names.
const (
	FormatKeyValue   = "KEYVALUEJSON"
	FormatStructured = "STRUCTURED_JSON"
	FormatChrome     = "CHROME"
	FormatChromeV3   = "CHROME_V3"
)

type variant int

const (
	keyValue variant = iota
	structured
	chrome
	chromeV3
)

// Extension is the file extension handled by this package.
const Extension = "json"

// Handler parses and compiles documents of one format. A Handler holds no
// per-document state and may be shared between goroutines.
type Handler struct {
	variant variant
	log     zerolog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for debug output. The default discards
// everything.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// New returns a KEYVALUEJSON handler.
func New(opts ...Option) *Handler {
	h := &Handler{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewStructured returns a STRUCTURED_JSON handler.
func NewStructured(opts ...Option) *Handler {
	h := New(opts...)
	h.variant = structured
	return h
}

// NewChrome returns a CHROME handler.
func NewChrome(opts ...Option) *Handler {
	h := New(opts...)
	h.variant = chrome
	return h
}

// NewChromeV3 returns a CHROME_V3 handler.
func NewChromeV3(opts ...Option) *Handler {
	h := New(opts...)
	h.variant = chromeV3
	return h
}

// ForFormat returns the handler for a format name. Names are matched
// case-insensitively; "keyvalue" and "structured" are accepted as short
// forms.
func ForFormat(name string, opts ...Option) (*Handler, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", FormatKeyValue, "KEYVALUE", "JSON":
		return New(opts...), nil
	case FormatStructured, "STRUCTURED":
		return NewStructured(opts...), nil
	case FormatChrome:
		return NewChrome(opts...), nil
	case FormatChromeV3:
		return NewChromeV3(opts...), nil
	}
	return nil, fmt.Errorf("unknown format %q (supported: %s)", name, strings.Join(Formats(), ", "))
}

// Formats returns the canonical names of all supported formats.
func Formats() []string {
	return []string{FormatKeyValue, FormatStructured, FormatChrome, FormatChromeV3}
}

// Name returns the format name.
func (h *Handler) Name() string {
	switch h.variant {
	case structured:
		return FormatStructured
	case chrome:
		return FormatChrome
	case chromeV3:
		return FormatChromeV3
	}
	return FormatKeyValue
}

// keepsUnmatched reports whether Compile leaves entries without a matching
// string in place instead of removing them.
func (h *Handler) keepsUnmatched() bool {
	return h.variant == structured || h.variant == chrome
}

// Escape returns s in JSON string-literal form.
func (h *Handler) Escape(s string) string { return jsonstr.Escape(s) }

// Unescape decodes JSON string-literal content.
func (h *Handler) Unescape(s string) string { return jsonstr.Unescape(s) }

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

// Parse extracts the translatable strings of content. It returns the
// template and the strings in extraction order.
func (h *Handler) Parse(content string) (string, []*openstring.OpenString, error) {
	if err := validate(content); err != nil {
		return "", nil, err
	}

	root, err := structjson.Parse(content)
	if err != nil {
		return "", nil, h.structureError(err)
	}

	e := newExtractor(h, content)
	if h.variant == chromeV3 {
		err = e.flat(root)
	} else {
		err = e.container(root, "", true)
	}
	if err != nil {
		return "", nil, err
	}
	e.tr.CopyToEnd()

	h.log.Debug().
		Str("format", h.Name()).
		Int("strings", len(e.strings)).
		Msg("extracted strings")

	return e.tr.Destination(), e.strings, nil
}

// validate rejects documents that are not well-formed JSON before the
// position-aware pass runs.
func validate(content string) error {
	if gjson.Valid(content) {
		return nil
	}
	var v any
	err := json.Unmarshal([]byte(content), &v)
	if err == nil {
		return nil
	}
	pe := &ParseError{Kind: KindSyntax, Msg: err.Error(), Err: err}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		pe.Line = lineAt(content, int(se.Offset))
	}
	return pe
}

// structureError converts a structjson error. A top-level scalar is
// reported as a structure error; the parser's own message stays reachable
// through Unwrap.
func (h *Handler) structureError(err error) error {
	var se *structjson.SyntaxError
	line := 0
	if errors.As(err, &se) {
		line = se.Line
	}
	if !errors.Is(err, structjson.ErrNotContainer) {
		return &ParseError{Kind: KindSyntax, Line: line, Msg: err.Error(), Err: err}
	}
	pe := &ParseError{Kind: KindStructure, Line: line, Msg: msgInvalidStructure, Err: err}
	if h.variant == chromeV3 {
		pe.Msg = msgNotObject
	}
	return pe
}

func lineAt(s string, offset int) int {
	if offset > len(s) {
		offset = len(s)
	}
	if offset < 0 {
		offset = 0
	}
	return strings.Count(s[:offset], "\n") + 1
}

// ---------------------------------------------------------------------------
// Compile
// ---------------------------------------------------------------------------

// Compile renders template with the given strings.
//
// Strings are matched to placeholders by position, not by key: the walk
// visits placeholders in document order and compares each one with the
// next pending string. A list that was reordered or filtered by key must be
// put back in extraction order first (see stringset.SortByOrder). In
// KEYVALUEJSON documents, entries whose placeholder does not match are
// dropped together with their key and separator, and containers left
// without children are dropped with them. CHROME_V3 drops unmatched
// members of the root object. STRUCTURED_JSON and CHROME documents keep
// unmatched placeholders in place.
//
// Plural items are written in ascending rule order (zero, one, two, few,
// many, other) separated by single spaces, whatever their order and
// spacing in the source. The ICU header and the closing brace keep their
// original form:
//
//	{n, plural, other {# files}  one {# file} }  ->  {n, plural, one {# file} other {# files} }
func (h *Handler) Compile(template string, strs []*openstring.OpenString) (string, error) {
	switch h.variant {
	case chrome:
		return h.replace(template, strs, true)
	case chromeV3:
		return h.replaceFlat(template, strs)
	}
	pruned, err := h.replace(template, strs, false)
	if err != nil {
		return "", err
	}
	pruned = cleanEmpties(pruned)
	return h.replace(pruned, strs, true)
}

// replace runs one compile pass. When final is false every matched
// placeholder is written back unchanged, so the pass only removes what the
// final pass would not be able to fill.
func (h *Handler) replace(template string, strs []*openstring.OpenString, final bool) (string, error) {
	root, err := structjson.Parse(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", h.structureError(err))
	}
	ins := newInserter(h, template, strs, final)
	if _, err := ins.container(root); err != nil {
		return "", err
	}
	ins.tr.CopyToEnd()
	return ins.tr.Destination(), nil
}

// replaceFlat compiles a CHROME_V3 template in a single pass.
func (h *Handler) replaceFlat(template string, strs []*openstring.OpenString) (string, error) {
	root, err := structjson.Parse(template)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", h.structureError(err))
	}
	if root.Kind != structjson.Object {
		return "", fmt.Errorf("parse template: %s", msgNotObject)
	}
	ins := newInserter(h, template, strs, true)
	if err := ins.flat(root); err != nil {
		return "", err
	}
	ins.tr.CopyToEnd()
	return trimTrailingComma(ins.tr.Destination()), nil
}
