package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadFileDefaultsAndValidation(t *testing.T) {
	t.Run("missing file returns nil", func(t *testing.T) {
		f, err := LoadFile(t.TempDir())
		if err != nil {
			t.Fatalf("LoadFile error: %v", err)
		}
		if f != nil {
			t.Fatalf("LoadFile expected nil, got %#v", f)
		}
	})

	t.Run("applies defaults and inheritance", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "languages: [ru, de]\n"+
			"documents:\n"+
			"  - source: locales/en.json\n"+
			"  - name: meta\n"+
			"    source: meta.json\n"+
			"    format: structured\n"+
			"    languages: [pt_BR]\n")

		f, err := LoadFile(dir)
		if err != nil {
			t.Fatalf("LoadFile error: %v", err)
		}
		if f.SourceLang != "en" || f.Format != "KEYVALUEJSON" {
			t.Fatalf("SourceLang = %q, Format = %q", f.SourceLang, f.Format)
		}
		if len(f.Documents) != 2 {
			t.Fatalf("expected 2 documents, got %d", len(f.Documents))
		}

		d := f.Documents[0]
		if d.Name != "locales/en" {
			t.Fatalf("Name = %q", d.Name)
		}
		if d.Template != "locales/en.template.json" || d.Strings != "locales/en.strings.yaml" {
			t.Fatalf("Template = %q, Strings = %q", d.Template, d.Strings)
		}
		if d.Translations != filepath.Join("locales", "{lang}.strings.yaml") {
			t.Fatalf("Translations = %q", d.Translations)
		}
		if d.Output != filepath.Join("locales", "{lang}.json") {
			t.Fatalf("Output = %q", d.Output)
		}
		if !reflect.DeepEqual(d.Languages, []string{"ru", "de"}) {
			t.Fatalf("Languages = %v, want [ru de]", d.Languages)
		}

		meta := f.Documents[1]
		if meta.Format != "STRUCTURED_JSON" {
			t.Fatalf("Format = %q", meta.Format)
		}
		if !reflect.DeepEqual(meta.Languages, []string{"pt_BR"}) {
			t.Fatalf("Languages = %v", meta.Languages)
		}
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		tests := []struct {
			yaml string
			want string
		}{
			{"documents:\n  - name: app\n", "has no source"},
			{"documents:\n  - source: a.json\n    format: xml\n", "unknown format"},
			{"documents:\n  - source: a.json\n  - source: a.json\n", "declared twice"},
			{"documents:\n  - source: a.json\n    output: out.json\n", "placeholder"},
			{"documents:\n  - source: a.json\n    translations: tr.yaml\n", "placeholder"},
			{"languages: [\"not a language\"]\ndocuments: []\n", "invalid language"},
			{"source_lang: \"!!\"\n", "invalid language"},
			{"documents: {\n", "parsing"},
		}
		for _, tc := range tests {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tc.yaml)
			_, err := LoadFile(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadFile(%q) error = %v, want %q", tc.yaml, err, tc.want)
			}
		}
	})
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"en", "de", "ru", "not a lang"} {
		writeFile(t, filepath.Join(dir, "locales", name+".strings.yaml"), "version: 1\n")
	}

	f, err := Parse([]byte("documents:\n  - name: app\n    source: locales/en.json\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	docs, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rd, ok := Find(docs, "app")
	if !ok {
		t.Fatal("Find(app) failed")
	}
	if _, ok := Find(docs, "missing"); ok {
		t.Fatal("Find(missing) should fail")
	}

	if !reflect.DeepEqual(rd.Languages, []string{"de", "ru"}) {
		t.Fatalf("detected languages = %v, want [de ru]", rd.Languages)
	}
	if got, want := rd.SourcePath(), filepath.Join(dir, "locales", "en.json"); got != want {
		t.Fatalf("SourcePath = %q, want %q", got, want)
	}
	if got, want := rd.TemplatePath(), filepath.Join(dir, "locales", "en.template.json"); got != want {
		t.Fatalf("TemplatePath = %q, want %q", got, want)
	}
	if got, want := rd.StringsPath(), filepath.Join(dir, "locales", "en.strings.yaml"); got != want {
		t.Fatalf("StringsPath = %q, want %q", got, want)
	}
	if got, want := rd.TranslationsPath("de"), filepath.Join(dir, "locales", "de.strings.yaml"); got != want {
		t.Fatalf("TranslationsPath = %q, want %q", got, want)
	}
	if got, want := rd.OutputPath("de"), filepath.Join(dir, "locales", "de.json"); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
}

func TestTargetLanguagesSkipsSource(t *testing.T) {
	rd := ResolvedDocument{SourceLang: "en", Languages: []string{"de", "en", "pt_BR"}}
	if got := rd.TargetLanguages(); !reflect.DeepEqual(got, []string{"de", "pt_BR"}) {
		t.Fatalf("TargetLanguages = %v", got)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"en", "en"},
		{"pt_BR", "pt-BR"},
		{"zh-Hant", "zh-Hant"},
	}
	for _, tc := range tests {
		got, err := NormalizeLanguage(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
	if _, err := NormalizeLanguage("not a language"); err == nil {
		t.Fatal("expected error for malformed code")
	}
	if !SameLanguage("pt_BR", "pt-BR") || SameLanguage("en", "de") {
		t.Fatal("SameLanguage mismatch")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "OPENJSON_WORKERS=7\nOPENJSON_LANG=ru\n")

	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvLang, "")
	// godotenv never overrides variables that are already set, so clear the
	// ones the file provides.
	os.Unsetenv(EnvWorkers)
	os.Unsetenv(EnvLang)

	env := LoadEnv(envFile)
	if env.LogLevel != "debug" || env.Workers != 7 || env.Lang != "ru" {
		t.Fatalf("LoadEnv = %+v", env)
	}
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvWorkers, "zero")
	t.Setenv(EnvLang, "")

	env := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if env.LogLevel != "info" || env.Workers != 4 || env.Lang != "" {
		t.Fatalf("LoadEnv = %+v", env)
	}
}

func TestAdHoc(t *testing.T) {
	f, err := AdHoc("structured", "a/en.json", "b.json")
	if err != nil {
		t.Fatalf("AdHoc: %v", err)
	}
	if len(f.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(f.Documents))
	}
	if d := f.Documents[1]; d.Name != "b" || d.Format != "STRUCTURED_JSON" || d.Template != "b.template.json" {
		t.Fatalf("document = %+v", d)
	}
	f, err = AdHoc("chrome_v3", "_locales/en/messages.json")
	if err != nil {
		t.Fatalf("AdHoc(chrome_v3): %v", err)
	}
	if d := f.Documents[0]; d.Format != "CHROME_V3" {
		t.Fatalf("Format = %q, want CHROME_V3", d.Format)
	}
	if _, err := AdHoc("", "same.json", "same.json"); err == nil {
		t.Fatal("AdHoc should reject duplicate sources")
	}
}
