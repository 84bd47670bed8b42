// Package openstring defines OpenString, the unit of translatable content
// extracted from a document, and the plural rule table shared by every
// format handler.
package openstring

import (
	"crypto/md5"
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Plural rules
// ---------------------------------------------------------------------------

// Plural rule numbers. Pluralized strings map these to per-category text;
// regular strings store their only form under RuleOther.
const (
	RuleZero  = 0
	RuleOne   = 1
	RuleTwo   = 2
	RuleFew   = 3
	RuleMany  = 4
	RuleOther = 5
)

var rulesAtoI = map[string]int{
	"zero":  RuleZero,
	"one":   RuleOne,
	"two":   RuleTwo,
	"few":   RuleFew,
	"many":  RuleMany,
	"other": RuleOther,
}

var rulesItoA = map[int]string{
	RuleZero:  "zero",
	RuleOne:   "one",
	RuleTwo:   "two",
	RuleFew:   "few",
	RuleMany:  "many",
	RuleOther: "other",
}

// RuleNumber returns the rule number for a category name such as "few".
func RuleNumber(name string) (int, bool) {
	n, ok := rulesAtoI[name]
	return n, ok
}

// RuleName returns the category name for a rule number, or "" if unknown.
func RuleName(n int) string {
	return rulesItoA[n]
}

// Rules returns all rule numbers in ascending order.
func Rules() []int {
	return []int{RuleZero, RuleOne, RuleTwo, RuleFew, RuleMany, RuleOther}
}

// ---------------------------------------------------------------------------
// OpenString
// ---------------------------------------------------------------------------

// OpenString is one translatable unit. Key, order, context and the plural
// flag are fixed at creation; the text in Strings is what translators edit.
//
// String content is kept in the escaped form it has inside the source
// document, so compiling it back reproduces the original bytes.
type OpenString struct {
	key        string
	order      int
	context    string
	pluralized bool

	// Strings maps a rule number to its text.
	Strings map[int]string
	// DeveloperComment is an optional note for translators.
	DeveloperComment string
	// CharacterLimit is an optional maximum length for translations.
	CharacterLimit *int
}

// Option configures optional OpenString attributes.
type Option func(*OpenString)

// WithContext sets the disambiguation context. It is part of the hash.
func WithContext(ctx string) Option {
	return func(s *OpenString) { s.context = ctx }
}

// WithDeveloperComment sets the developer comment.
func WithDeveloperComment(comment string) Option {
	return func(s *OpenString) { s.DeveloperComment = comment }
}

// WithCharacterLimit sets the character limit.
func WithCharacterLimit(limit int) Option {
	return func(s *OpenString) { s.CharacterLimit = &limit }
}

// New returns a regular (non-plural) string.
func New(key, value string, order int, opts ...Option) *OpenString {
	s := &OpenString{
		key:     key,
		order:   order,
		Strings: map[int]string{RuleOther: value},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPluralized returns a plural string with one text per rule number.
func NewPluralized(key string, strings map[int]string, order int, opts ...Option) *OpenString {
	cp := make(map[int]string, len(strings))
	for rule, text := range strings {
		cp[rule] = text
	}
	s := &OpenString{
		key:        key,
		order:      order,
		pluralized: true,
		Strings:    cp,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the string's unique key within its document.
func (s *OpenString) Key() string { return s.key }

// Order returns the position at which the string was extracted.
func (s *OpenString) Order() int { return s.order }

// Context returns the disambiguation context.
func (s *OpenString) Context() string { return s.context }

// Pluralized reports whether the string holds plural forms.
func (s *OpenString) Pluralized() bool { return s.pluralized }

// String returns the "other" form, which is the only form of a regular
// string.
func (s *OpenString) String() string { return s.Strings[RuleOther] }

// Hash returns the md5 hex digest of key and context.
func (s *OpenString) Hash() string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s.key+":"+s.context)))
}

// TemplateReplacement returns the placeholder written into templates in
// place of the string's text.
func (s *OpenString) TemplateReplacement() string {
	suffix := "tr"
	if s.pluralized {
		suffix = "pl"
	}
	return s.Hash() + "_" + suffix
}

// Rules returns the rule numbers present in Strings, ascending.
func (s *OpenString) Rules() []int {
	rules := make([]int, 0, len(s.Strings))
	for r := range s.Strings {
		rules = append(rules, r)
	}
	sort.Ints(rules)
	return rules
}

// WithStrings returns a copy of s that carries different text but keeps
// key, order, context and metadata.
func (s *OpenString) WithStrings(strings map[int]string) *OpenString {
	cp := *s
	cp.Strings = make(map[int]string, len(strings))
	for rule, text := range strings {
		cp.Strings[rule] = text
	}
	return &cp
}
