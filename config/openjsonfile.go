// Package config implements .openjson.yaml project files and environment
// settings.
//
// A project file lists the JSON documents of a project together with the
// places where their templates, string lists and translations live:
//
//	source_lang: en
//	languages: [de, ru]
//	documents:
//	  - name: app
//	    source: locales/en.json
//	    translations: locales/{lang}.strings.yaml
//	    output: locales/{lang}.json
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/openjson/kvjson"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .openjson.yaml structure.
type File struct {
	// Format is the default document format (default KEYVALUEJSON).
	Format string `yaml:"format,omitempty"`
	// SourceLang is the language of the source documents (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages is the default list of target languages.
	Languages []string `yaml:"languages,omitempty"`
	// Documents is the list of source documents.
	Documents []Document `yaml:"documents"`
}

// Document describes one source document. Paths are relative to the
// directory holding .openjson.yaml; Translations and Output must contain
// the {lang} placeholder.
type Document struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Format       string   `yaml:"format,omitempty"`
	Template     string   `yaml:"template,omitempty"`
	Strings      string   `yaml:"strings,omitempty"`
	Translations string   `yaml:"translations,omitempty"`
	Output       string   `yaml:"output,omitempty"`
	Languages    []string `yaml:"languages,omitempty"`
}

// FileName is the default config file name.
const FileName = ".openjson.yaml"

// LangPlaceholder is replaced by a language code in path patterns.
const LangPlaceholder = "{lang}"

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadFile loads and validates .openjson.yaml from the given directory.
// Returns nil if no .openjson.yaml exists.
func LoadFile(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates project file content, filling in defaults.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

// AdHoc builds a project from source files given on the command line. All
// documents share format and take the default paths next to their source.
func AdHoc(format string, sources ...string) (*File, error) {
	f := File{Format: format}
	for _, src := range sources {
		f.Documents = append(f.Documents, Document{Source: src})
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

// normalize fills in defaults and validates f in place.
func (f *File) normalize() error {
	if f.SourceLang == "" {
		f.SourceLang = "en"
	}
	if f.Format == "" {
		f.Format = kvjson.FormatKeyValue
	}
	if _, err := NormalizeLanguage(f.SourceLang); err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	for _, lang := range f.Languages {
		if _, err := NormalizeLanguage(lang); err != nil {
			return fmt.Errorf("languages: %w", err)
		}
	}

	names := make(map[string]bool)
	for i := range f.Documents {
		d := &f.Documents[i]

		if d.Source == "" {
			return fmt.Errorf("document #%d has no source", i+1)
		}
		if d.Name == "" {
			d.Name = strings.TrimSuffix(filepath.ToSlash(d.Source), filepath.Ext(d.Source))
		}
		if names[d.Name] {
			return fmt.Errorf("document %q is declared twice", d.Name)
		}
		names[d.Name] = true

		if d.Format == "" {
			d.Format = f.Format
		}
		h, err := kvjson.ForFormat(d.Format)
		if err != nil {
			return fmt.Errorf("document %q: %w", d.Name, err)
		}
		d.Format = h.Name()

		base := strings.TrimSuffix(d.Source, filepath.Ext(d.Source))
		dir := filepath.Dir(d.Source)
		if d.Template == "" {
			d.Template = base + ".template.json"
		}
		if d.Strings == "" {
			d.Strings = base + ".strings.yaml"
		}
		if d.Translations == "" {
			d.Translations = filepath.Join(dir, LangPlaceholder+".strings.yaml")
		}
		if d.Output == "" {
			d.Output = filepath.Join(dir, LangPlaceholder+filepath.Ext(d.Source))
		}
		if !strings.Contains(d.Translations, LangPlaceholder) {
			return fmt.Errorf("document %q: translations path %q has no %s placeholder", d.Name, d.Translations, LangPlaceholder)
		}
		if !strings.Contains(d.Output, LangPlaceholder) {
			return fmt.Errorf("document %q: output path %q has no %s placeholder", d.Name, d.Output, LangPlaceholder)
		}

		for _, lang := range d.Languages {
			if _, err := NormalizeLanguage(lang); err != nil {
				return fmt.Errorf("document %q: %w", d.Name, err)
			}
		}
		if len(d.Languages) == 0 {
			d.Languages = f.Languages
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Resolving documents
// ---------------------------------------------------------------------------

// ResolvedDocument holds a document with absolute paths.
type ResolvedDocument struct {
	Document   Document
	AbsRoot    string
	SourceLang string
	Languages  []string
}

// Resolve converts the file into documents with absolute paths. Documents
// without a language list get the languages of their existing translation
// files.
func (f *File) Resolve(projectRoot string) ([]ResolvedDocument, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedDocument, 0, len(f.Documents))
	for _, d := range f.Documents {
		rd := ResolvedDocument{
			Document:   d,
			AbsRoot:    absRoot,
			SourceLang: f.SourceLang,
			Languages:  d.Languages,
		}
		if len(rd.Languages) == 0 {
			rd.Languages = detectLanguages(rd.abs(d.Translations), f.SourceLang)
		}
		resolved = append(resolved, rd)
	}
	return resolved, nil
}

// Find returns the resolved document with the given name.
func Find(docs []ResolvedDocument, name string) (ResolvedDocument, bool) {
	for _, d := range docs {
		if d.Document.Name == name {
			return d, true
		}
	}
	return ResolvedDocument{}, false
}

func (rd *ResolvedDocument) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(rd.AbsRoot, rel)
}

// SourcePath returns the absolute path of the source document.
func (rd *ResolvedDocument) SourcePath() string { return rd.abs(rd.Document.Source) }

// TemplatePath returns the absolute path of the template.
func (rd *ResolvedDocument) TemplatePath() string { return rd.abs(rd.Document.Template) }

// StringsPath returns the absolute path of the source strings file.
func (rd *ResolvedDocument) StringsPath() string { return rd.abs(rd.Document.Strings) }

// TranslationsPath returns the absolute path of the strings file for lang.
func (rd *ResolvedDocument) TranslationsPath(lang string) string {
	return rd.abs(strings.ReplaceAll(rd.Document.Translations, LangPlaceholder, lang))
}

// OutputPath returns the absolute path of the compiled document for lang.
func (rd *ResolvedDocument) OutputPath(lang string) string {
	return rd.abs(strings.ReplaceAll(rd.Document.Output, LangPlaceholder, lang))
}

// TargetLanguages returns the document languages without the source
// language, which is never compiled over its own source.
func (rd *ResolvedDocument) TargetLanguages() []string {
	var langs []string
	for _, lang := range rd.Languages {
		if !SameLanguage(lang, rd.SourceLang) {
			langs = append(langs, lang)
		}
	}
	return langs
}

// detectLanguages finds languages from files matching a {lang} pattern.
func detectLanguages(pattern, sourceLang string) []string {
	i := strings.Index(pattern, LangPlaceholder)
	if i < 0 {
		return nil
	}
	prefix, suffix := pattern[:i], pattern[i+len(LangPlaceholder):]
	matches, err := filepath.Glob(strings.ReplaceAll(pattern, LangPlaceholder, "*"))
	if err != nil {
		return nil
	}

	var langs []string
	for _, m := range matches {
		if !strings.HasPrefix(m, prefix) || !strings.HasSuffix(m, suffix) || len(m) < len(prefix)+len(suffix) {
			continue
		}
		lang := m[len(prefix) : len(m)-len(suffix)]
		if strings.ContainsRune(lang, filepath.Separator) || SameLanguage(lang, sourceLang) {
			continue
		}
		if _, err := NormalizeLanguage(lang); err == nil {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}
