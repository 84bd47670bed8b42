// Package stringset stores extracted strings in a YAML file that
// translators can edit.
//
// The file lists strings in extraction order:
//
//	version: 1
//	format: KEYVALUEJSON
//	strings:
//	  - key: menu.open
//	    order: 0
//	    string: Open
//	  - key: files
//	    order: 1
//	    plurals:
//	      one: '{cnt} file'
//	      other: '{cnt} files'
//
// Text is kept exactly as it appears inside the JSON string literal, escape
// sequences included, so compiling an untouched file reproduces the source.
package stringset

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/openjson/openstring"
)

// Version is the strings file format version.
const Version = 1

// Extension is appended to a document name to build its strings file name.
const Extension = ".strings.yaml"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// File is the on-disk representation of a string list.
type File struct {
	Version int     `yaml:"version"`
	Format  string  `yaml:"format,omitempty"`
	Strings []Entry `yaml:"strings"`
}

// Entry is one string. Exactly one of String and Plurals is used.
type Entry struct {
	Key              string            `yaml:"key"`
	Order            int               `yaml:"order"`
	String           string            `yaml:"string,omitempty"`
	Plurals          map[string]string `yaml:"plurals,omitempty"`
	Context          string            `yaml:"context,omitempty"`
	DeveloperComment string            `yaml:"developer_comment,omitempty"`
	CharacterLimit   *int              `yaml:"character_limit,omitempty"`
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// FromStrings converts strings to their file entries.
func FromStrings(strs []*openstring.OpenString) []Entry {
	entries := make([]Entry, 0, len(strs))
	for _, s := range strs {
		e := Entry{
			Key:              s.Key(),
			Order:            s.Order(),
			Context:          s.Context(),
			DeveloperComment: s.DeveloperComment,
			CharacterLimit:   s.CharacterLimit,
		}
		if s.Pluralized() {
			e.Plurals = make(map[string]string, len(s.Strings))
			for _, rule := range s.Rules() {
				e.Plurals[openstring.RuleName(rule)] = s.Strings[rule]
			}
		} else {
			e.String = s.String()
		}
		entries = append(entries, e)
	}
	return entries
}

// ToStrings converts file entries back to strings. Keys must be unique and
// plural categories must belong to the rule table.
func ToStrings(entries []Entry) ([]*openstring.OpenString, error) {
	strs := make([]*openstring.OpenString, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if seen[e.Key] {
			return nil, fmt.Errorf("entry #%d: duplicate key %q", i+1, e.Key)
		}
		seen[e.Key] = true

		var opts []openstring.Option
		if e.Context != "" {
			opts = append(opts, openstring.WithContext(e.Context))
		}
		if e.DeveloperComment != "" {
			opts = append(opts, openstring.WithDeveloperComment(e.DeveloperComment))
		}
		if e.CharacterLimit != nil {
			opts = append(opts, openstring.WithCharacterLimit(*e.CharacterLimit))
		}

		if len(e.Plurals) == 0 {
			strs = append(strs, openstring.New(e.Key, e.String, e.Order, opts...))
			continue
		}
		if e.String != "" {
			return nil, fmt.Errorf("entry %q: both string and plurals set", e.Key)
		}
		forms := make(map[int]string, len(e.Plurals))
		for name, text := range e.Plurals {
			rule, ok := openstring.RuleNumber(name)
			if !ok {
				return nil, fmt.Errorf("entry %q: unknown plural category %q", e.Key, name)
			}
			forms[rule] = text
		}
		strs = append(strs, openstring.NewPluralized(e.Key, forms, e.Order, opts...))
	}
	return strs, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Marshal encodes strings as a YAML strings file.
func Marshal(format string, strs []*openstring.OpenString) ([]byte, error) {
	f := File{Version: Version, Format: format, Strings: FromStrings(strs)}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshaling strings: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a YAML strings file. The returned strings are sorted
// by order.
func Unmarshal(data []byte) (string, []*openstring.OpenString, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("parsing strings: %w", err)
	}
	if f.Version > Version {
		return "", nil, fmt.Errorf("unsupported strings file version %d (max %d)", f.Version, Version)
	}
	strs, err := ToStrings(f.Strings)
	if err != nil {
		return "", nil, err
	}
	SortByOrder(strs)
	return f.Format, strs, nil
}

// ReadFile reads a strings file.
func ReadFile(path string) (string, []*openstring.OpenString, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	format, strs, err := Unmarshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return format, strs, nil
}

// WriteFile writes a strings file.
func WriteFile(path, format string, strs []*openstring.OpenString) error {
	data, err := Marshal(format, strs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// SortByOrder puts strs back in extraction order, which is the order
// compilation expects.
func SortByOrder(strs []*openstring.OpenString) {
	sort.SliceStable(strs, func(i, j int) bool {
		return strs[i].Order() < strs[j].Order()
	})
}

// Stats counts regular and pluralized strings.
func Stats(strs []*openstring.OpenString) (regular, plural int) {
	for _, s := range strs {
		if s.Pluralized() {
			plural++
		} else {
			regular++
		}
	}
	return
}
