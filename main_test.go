package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/openjson/kvjson"
	"github.com/minios-linux/openjson/lockfile"
	"github.com/minios-linux/openjson/openstring"
	"github.com/minios-linux/openjson/stringset"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestContainsLang(t *testing.T) {
	if !containsLang([]string{"de", " pt_BR "}, "pt-BR") {
		t.Fatal("containsLang should match normalized codes")
	}
	if containsLang([]string{"de"}, "ru") {
		t.Fatal("containsLang(de, ru) = true")
	}
}

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	old := stderr
	stderr = io.Discard
	t.Cleanup(func() { stderr = old })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEscapeCommands(t *testing.T) {
	out, err := execute(t, "", "escape", `say "hi"`, "a\tb")
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if want := `say \"hi\"` + "\n" + `a\tb` + "\n"; out != want {
		t.Fatalf("escape output = %q, want %q", out, want)
	}

	out, err = execute(t, `line\nnext é`+"\n", "unescape")
	if err != nil {
		t.Fatalf("unescape: %v", err)
	}
	if want := "line\nnext é\n"; out != want {
		t.Fatalf("unescape output = %q, want %q", out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "openjson version "+version) {
		t.Fatalf("version output = %q", out)
	}
}

const sourceDoc = `{
  "hello": "Hello",
  "menu": {"files": "{count, plural, one {# file} other {# files}}"},
  "gone": "Bye",
  "count": 3
}
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "locales"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "locales", "en.json"), []byte(sourceDoc), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := "languages: [de]\ndocuments:\n  - name: app\n    source: locales/en.json\n"
	if err := os.WriteFile(filepath.Join(dir, ".openjson.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// translate writes a German strings file for every extracted string except
// "gone".
func translate(t *testing.T, dir string) string {
	t.Helper()
	format, strs, err := stringset.ReadFile(filepath.Join(dir, "locales", "en.strings.yaml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var de []*openstring.OpenString
	for _, s := range strs {
		switch s.Key() {
		case "hello":
			de = append(de, s.WithStrings(map[int]string{openstring.RuleOther: "Hallo"}))
		case "menu.files":
			de = append(de, s.WithStrings(map[int]string{
				openstring.RuleOne:   "# Datei",
				openstring.RuleOther: "# Dateien",
			}))
		}
	}
	if len(de) != 2 {
		t.Fatalf("extracted keys = %v", keys(strs))
	}

	path := filepath.Join(dir, "locales", "de.strings.yaml")
	if err := stringset.WriteFile(path, format, de); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func keys(strs []*openstring.OpenString) []string {
	var out []string
	for _, s := range strs {
		out = append(out, s.Key())
	}
	return out
}

func TestParseAndCompileProject(t *testing.T) {
	dir := writeProject(t)

	if _, err := execute(t, "", "--root", dir, "parse"); err != nil {
		t.Fatalf("parse: %v", err)
	}

	template, err := os.ReadFile(filepath.Join(dir, "locales", "en.template.json"))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if strings.Contains(string(template), "Hello") || !strings.Contains(string(template), "{count, plural, ") {
		t.Fatalf("unexpected template:\n%s", template)
	}

	lf, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	if targets, n := lf.Stats(); targets != 1 || n != 3 {
		t.Fatalf("lock file has %d targets, %d keys; want 1, 3", targets, n)
	}
	if got := lf.Targets(); !reflect.DeepEqual(got, []string{"locales/en.json"}) {
		t.Fatalf("lock targets = %v", got)
	}

	dePath := translate(t, dir)

	if _, err := execute(t, "", "--root", dir, "compile"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "locales", "de.json"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("compiled output is not valid JSON: %v\n%s", err, out)
	}
	want := map[string]any{
		"hello": "Hallo",
		"menu":  map[string]any{"files": "{count, plural, one {# Datei} other {# Dateien}}"},
		"count": float64(3),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("compiled = %v, want %v", got, want)
	}

	// Explicit files write the same document to stdout.
	stdout, err := execute(t, "", "compile", filepath.Join(dir, "locales", "en.template.json"), dePath)
	if err != nil {
		t.Fatalf("compile files: %v", err)
	}
	if stdout != string(out) {
		t.Fatalf("stdout = %q, want %q", stdout, out)
	}

	if _, err := execute(t, "", "--root", dir, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestCompileWithoutTranslations(t *testing.T) {
	dir := writeProject(t)
	if _, err := execute(t, "", "--root", dir, "compile"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if fileExists(filepath.Join(dir, "locales", "de.json")) {
		t.Fatal("nothing should be compiled without translations")
	}
}

func TestCompileArgs(t *testing.T) {
	if _, err := execute(t, "", "compile", "only-one"); err == nil {
		t.Fatal("compile with one argument should fail")
	}
}

func TestParseReportsErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dup.json")
	if err := os.WriteFile(src, []byte("{\"a\": \"x\",\n\"a\": \"y\"}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "", "--root", dir, "parse", "--no-lock", src)
	if err == nil || !strings.Contains(err.Error(), "1 document failed") {
		t.Fatalf("parse error = %v", err)
	}
	if !errors.Is(err, kvjson.ErrDuplicateKey) {
		t.Fatalf("parse error %v does not wrap the document error", err)
	}
	if fileExists(filepath.Join(dir, "dup.template.json")) {
		t.Fatal("no template should be written for a failed document")
	}
	if fileExists(filepath.Join(dir, lockfile.LockFileName)) {
		t.Fatal("--no-lock should not create a lock file")
	}
}

func TestParseRemovesStaleLockTargets(t *testing.T) {
	dir := writeProject(t)

	lf, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	lf.Record("locales/old.json", []*openstring.OpenString{openstring.New("x", "X", 0)})
	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := execute(t, "", "--root", dir, "parse"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	lf, err = lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	if got := lf.Targets(); !reflect.DeepEqual(got, []string{"locales/en.json"}) {
		t.Fatalf("lock targets = %v, want only locales/en.json", got)
	}
}

func TestParseChromeCatalog(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "messages.json")
	doc := `{"appName": {"message": "Notes", "description": "Extension name"}, "version": "1.0"}`
	if err := os.WriteFile(src, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "--root", dir, "parse", "--no-lock", "-f", "chrome_v3", src); err != nil {
		t.Fatalf("parse: %v", err)
	}
	format, strs, err := stringset.ReadFile(filepath.Join(dir, "messages.strings.yaml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if format != kvjson.FormatChromeV3 {
		t.Fatalf("format = %q", format)
	}
	if len(strs) != 1 || strs[0].Key() != "appName" || strs[0].DeveloperComment != "Extension name" {
		t.Fatalf("strings = %+v", strs)
	}
}

func TestParseWithoutProject(t *testing.T) {
	if _, err := execute(t, "", "--root", t.TempDir(), "parse"); err == nil {
		t.Fatal("parse without .openjson.yaml or files should fail")
	}
}

func TestDescribeParseError(t *testing.T) {
	rootDir = t.TempDir()
	t.Cleanup(func() { rootDir = "." })

	h, err := handlerFor("", "test")
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = h.Parse("{\"a\": \"x\",\n\"a\": \"y\"}")
	got := describeParseError(filepath.Join(rootDir, "x.json"), err).Error()
	if !strings.HasPrefix(got, "x.json:2: ") {
		t.Fatalf("describeParseError = %q", got)
	}
}

func TestLangLabel(t *testing.T) {
	if got := langLabel("de"); got != "🇩🇪 de Deutsch" {
		t.Fatalf("langLabel(de) = %q", got)
	}
}
