// openjson: format-preserving extraction and compilation of translatable
// strings in JSON documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minios-linux/openjson/config"
	"github.com/minios-linux/openjson/i18n"
	"github.com/minios-linux/openjson/jsonstr"
	"github.com/minios-linux/openjson/kvjson"
	"github.com/minios-linux/openjson/langmeta"
	"github.com/minios-linux/openjson/lockfile"
	"github.com/minios-linux/openjson/openstring"
	"github.com/minios-linux/openjson/stringset"
	"github.com/minios-linux/openjson/worker"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors. Cleared by setupOutput when stderr is not a terminal.
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// stderr receives all human-oriented output.
var stderr io.Writer = os.Stderr

func setupOutput() {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		stderr = colorable.NewColorableStderr()
		return
	}
	colorReset, colorRed, colorGreen, colorYellow, colorBlue = "", "", "", "", ""
}

// setupLogging routes zerolog through a console writer on stderr.
func setupLogging(level string, verbose bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        stderr,
		NoColor:    colorReset == "",
		TimeFormat: time.TimeOnly,
	})
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
	}
}

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	env     config.Env
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "openjson",
		Short: i18n.T("Extract and compile translatable strings in JSON files"),
		Long: i18n.T(`openjson extracts translatable strings from JSON documents and rebuilds
translated documents from them, leaving everything else byte for byte intact.

Commands:
  parse       Extract strings into a template and a strings file
  compile     Rebuild translated JSON files from templates
  status      Show documents, string counts and translation progress
  escape      Encode text as JSON string content
  unescape    Decode JSON string content

Documents are listed in .openjson.yaml in the project root. parse and
compile also accept files on the command line.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(env.LogLevel, verbose)
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, i18n.T("Show debug output"))

	root.AddCommand(
		newParseCmd(),
		newCompileCmd(),
		newStatusCmd(),
		newEscapeCmd(),
		newUnescapeCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	os.Exit(run())
}

func run() int {
	setupOutput()
	setupLogging("info", false)
	env = config.LoadEnv()
	i18n.Init(env.Lang)

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("%s", i18n.T("Interrupted, finishing current documents..."))
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "openjson version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// parse
// ---------------------------------------------------------------------------

func newParseCmd() *cobra.Command {
	var (
		format string
		noLock bool
	)

	cmd := &cobra.Command{
		Use:   "parse [source.json...]",
		Short: i18n.T("Extract strings into a template and a strings file"),
		Long: i18n.T(`Extract translatable strings from source documents.

For every document a template (source with placeholders in place of the
strings) and a strings file (.strings.yaml) are written. Without arguments
all documents of .openjson.yaml are parsed. Changes since the previous parse
are tracked in openjson.lock.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), format, args, !noLock)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", kvjson.FormatKeyValue, i18n.T("Format of files given as arguments (KEYVALUEJSON, STRUCTURED_JSON, CHROME or CHROME_V3)"))
	cmd.Flags().BoolVar(&noLock, "no-lock", false, i18n.T("Do not read or update openjson.lock"))

	return cmd
}

func runParse(ctx context.Context, format string, files []string, useLock bool) error {
	docs, err := loadDocuments(format, files)
	if err != nil {
		return err
	}

	var lf *lockfile.LockFile
	if useLock {
		if lf, err = lockfile.Load(rootDir); err != nil {
			return err
		}
	}

	pool := worker.NewPool(env.Workers, func(_ context.Context, rd config.ResolvedDocument) ([]*openstring.OpenString, error) {
		return parseDocument(rd)
	})
	log.Debug().Int("documents", len(docs)).Int("workers", pool.Workers()).Msg("parsing")
	tasks := pool.Execute(ctx, docs)

	failed := 0
	for _, t := range tasks {
		rd := t.Input
		if t.Err != nil {
			logError("%s: %v", rd.Document.Name, t.Err)
			failed++
			continue
		}

		regular, plural := stringset.Stats(t.Result)
		logSuccess(i18n.N("%s: %d string (%d plural) -> %s", "%s: %d strings (%d plural) -> %s", regular+plural),
			rd.Document.Name, regular+plural, plural, relToRoot(rd.StringsPath()))

		if lf != nil {
			target := lockfile.TargetKey(relToRoot(rd.SourcePath()))
			reportChanges(rd.Document.Name, lf.Diff(target, t.Result))
			lf.Record(target, t.Result)
		}
	}

	// Only the project file lists every document, so stale targets can be
	// told apart from documents that were simply not named this time.
	if lf != nil && len(files) == 0 {
		pruneTargets(lf, docs)
	}

	if lf != nil && failed < len(tasks) {
		if err := lf.Save(); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(i18n.N("%d document failed", "%d documents failed", failed), failed), worker.FirstError(tasks))
	}
	return nil
}

// pruneTargets drops lock entries of documents no longer in the project.
func pruneTargets(lf *lockfile.LockFile, docs []config.ResolvedDocument) {
	current := make(map[string]bool, len(docs))
	for _, rd := range docs {
		current[lockfile.TargetKey(relToRoot(rd.SourcePath()))] = true
	}
	for _, target := range lf.Targets() {
		if !current[target] {
			lf.RemoveTarget(target)
			logInfo(i18n.T("%s: no longer in the project, removed from %s"), target, lockfile.LockFileName)
		}
	}
}

// parseDocument extracts the strings of one document and writes its
// template and strings file.
func parseDocument(rd config.ResolvedDocument) ([]*openstring.OpenString, error) {
	h, err := handlerFor(rd.Document.Format, rd.Document.Name)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(rd.SourcePath())
	if err != nil {
		return nil, err
	}

	template, strs, err := h.Parse(string(src))
	if err != nil {
		return nil, describeParseError(rd.SourcePath(), err)
	}

	if err := writeFile(rd.TemplatePath(), template); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(rd.StringsPath()), 0755); err != nil {
		return nil, err
	}
	if err := stringset.WriteFile(rd.StringsPath(), h.Name(), strs); err != nil {
		return nil, err
	}
	return strs, nil
}

// describeParseError prefixes err with the file and, when known, the line.
func describeParseError(path string, err error) error {
	var pe *kvjson.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		return fmt.Errorf("%s:%d: %w", relToRoot(path), pe.Line, err)
	}
	return fmt.Errorf("%s: %w", relToRoot(path), err)
}

func reportChanges(name string, c lockfile.Changes) {
	if c.Empty() {
		log.Debug().Str("document", name).Msg("no changes since last parse")
		return
	}
	logInfo(i18n.T("%s: %d added, %d changed, %d removed"), name, len(c.Added), len(c.Changed), len(c.Removed))
	for _, key := range c.Added {
		log.Debug().Str("document", name).Str("key", key).Msg("added")
	}
	for _, key := range c.Changed {
		log.Debug().Str("document", name).Str("key", key).Msg("changed")
	}
	for _, key := range c.Removed {
		log.Debug().Str("document", name).Str("key", key).Msg("removed")
	}
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

func newCompileCmd() *cobra.Command {
	var (
		output string
		langs  []string
	)

	cmd := &cobra.Command{
		Use:   "compile [template strings]",
		Short: i18n.T("Rebuild translated JSON files from templates"),
		Long: i18n.T(`Rebuild translated documents from templates and strings files.

With a template and a strings file as arguments the result is written to
standard output or to --output. Without arguments every document of
.openjson.yaml is compiled for each language that has a translations file.
Entries of the template without a translated string are removed.`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf(i18n.T("expected a template and a strings file, got %d arguments"), len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return compileFiles(cmd.OutOrStdout(), args[0], args[1], output)
			}
			return runCompile(cmd.Context(), langs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", i18n.T("Output file (default: standard output)"))
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, i18n.T("Compile only these languages"))

	return cmd
}

// compile fills template with strs in extraction order.
func compile(format, name, template string, strs []*openstring.OpenString) (string, error) {
	h, err := handlerFor(format, name)
	if err != nil {
		return "", err
	}
	stringset.SortByOrder(strs)
	return h.Compile(template, strs)
}

func compileFiles(stdout io.Writer, templatePath, stringsPath, output string) error {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	format, strs, err := stringset.ReadFile(stringsPath)
	if err != nil {
		return err
	}

	out, err := compile(format, templatePath, string(template), strs)
	if err != nil {
		return fmt.Errorf("%s: %w", templatePath, err)
	}
	if output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	return writeFile(output, out)
}

type compileJob struct {
	doc  config.ResolvedDocument
	lang string
}

func runCompile(ctx context.Context, langs []string) error {
	docs, err := loadDocuments("", nil)
	if err != nil {
		return err
	}

	var jobs []compileJob
	for _, rd := range docs {
		for _, lang := range rd.TargetLanguages() {
			if len(langs) > 0 && !containsLang(langs, lang) {
				continue
			}
			if !fileExists(rd.TranslationsPath(lang)) {
				log.Debug().Str("document", rd.Document.Name).Str("lang", lang).Msg("no translations file")
				continue
			}
			jobs = append(jobs, compileJob{doc: rd, lang: lang})
		}
	}
	if len(jobs) == 0 {
		logInfo("%s", i18n.T("Nothing to compile."))
		return nil
	}

	pool := worker.NewPool(env.Workers, func(_ context.Context, j compileJob) (string, error) {
		return compileDocument(j.doc, j.lang)
	})
	log.Debug().Int("jobs", len(jobs)).Int("workers", pool.Workers()).Msg("compiling")
	tasks := pool.Execute(ctx, jobs)

	failed := 0
	for _, t := range tasks {
		if t.Err != nil {
			logError("%s [%s]: %v", t.Input.doc.Document.Name, t.Input.lang, t.Err)
			failed++
			continue
		}
		logSuccess("%s [%s] -> %s", t.Input.doc.Document.Name, t.Input.lang, t.Result)
	}
	if failed > 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(i18n.N("%d document failed", "%d documents failed", failed), failed), worker.FirstError(tasks))
	}
	return nil
}

// compileDocument writes the lang output of a document and returns its
// path relative to the project root.
func compileDocument(rd config.ResolvedDocument, lang string) (string, error) {
	template, err := os.ReadFile(rd.TemplatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf(i18n.T("template %s not found, run 'openjson parse' first"), relToRoot(rd.TemplatePath()))
		}
		return "", err
	}
	_, strs, err := stringset.ReadFile(rd.TranslationsPath(lang))
	if err != nil {
		return "", err
	}

	out, err := compile(rd.Document.Format, rd.Document.Name, string(template), strs)
	if err != nil {
		return "", err
	}
	path := rd.OutputPath(lang)
	if err := writeFile(path, out); err != nil {
		return "", err
	}
	return relToRoot(path), nil
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show documents, string counts and translation progress"),
		Long: i18n.T(`Show the documents of .openjson.yaml, how many strings each one has, what
changed since the last parse and how much of each language is translated.
Does not modify any files.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	f, err := config.LoadFile(rootDir)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf(i18n.T("no %s found in %s"), config.FileName, rootDir)
	}
	docs, err := f.Resolve(rootDir)
	if err != nil {
		return err
	}
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(stderr, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(stderr, strings.Repeat("─", 60))
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Root:"), absRoot)
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Source:"), f.SourceLang)
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Lock file:"), lf.Summary())
	fmt.Fprintln(stderr)

	for _, rd := range docs {
		showDocumentStatus(rd, lf)
	}
	return nil
}

func showDocumentStatus(rd config.ResolvedDocument, lf *lockfile.LockFile) {
	fmt.Fprintf(stderr, "%s%s%s (%s)\n", colorBlue, rd.Document.Name, colorReset, rd.Document.Format)
	fmt.Fprintln(stderr, strings.Repeat("─", 60))

	h, err := handlerFor(rd.Document.Format, rd.Document.Name)
	if err != nil {
		logError("%v", err)
		return
	}
	src, err := os.ReadFile(rd.SourcePath())
	if err != nil {
		logError("%v", err)
		return
	}
	_, strs, err := h.Parse(string(src))
	if err != nil {
		logError("%v", describeParseError(rd.SourcePath(), err))
		return
	}

	regular, plural := stringset.Stats(strs)
	total := regular + plural
	fmt.Fprintf(stderr, "  %-12s %d (%d plural)\n", i18n.T("Strings:"), total, plural)

	c := lf.Diff(lockfile.TargetKey(relToRoot(rd.SourcePath())), strs)
	if c.Empty() {
		fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Pending:"), i18n.T("none"))
	} else {
		fmt.Fprintf(stderr, "  %-12s "+i18n.T("%d added, %d changed, %d removed")+"\n",
			i18n.T("Pending:"), len(c.Added), len(c.Changed), len(c.Removed))
	}

	langs := rd.TargetLanguages()
	if len(langs) == 0 || total == 0 {
		fmt.Fprintln(stderr)
		return
	}

	source := make(map[string]bool, len(strs))
	for _, s := range strs {
		source[s.Key()] = true
	}

	fmt.Fprintf(stderr, "\n  %-24s %-12s %s\n", i18n.T("Lang"), i18n.T("Translated"), i18n.T("Progress"))
	for _, lang := range langs {
		_, tr, err := stringset.ReadFile(rd.TranslationsPath(lang))
		if err != nil {
			fmt.Fprintf(stderr, "  %-24s %-12s %s\n", langLabel(lang), i18n.T("missing"), "-")
			continue
		}
		n := 0
		for _, s := range tr {
			if source[s.Key()] {
				n++
			}
		}
		fmt.Fprintf(stderr, "  %-24s %-12s %s\n", langLabel(lang), fmt.Sprintf("%d/%d", n, total), progressBar(n*100/total, 20))
	}
	fmt.Fprintln(stderr)
}

// langLabel shows a language code with its flag and native name.
func langLabel(lang string) string {
	m := langmeta.Resolve(lang)
	label := lang + " " + m.Name
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}

// progressBar renders percent as a colored bar of width cells.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 40:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf(" %3d%%", percent)
}

// ---------------------------------------------------------------------------
// escape / unescape
// ---------------------------------------------------------------------------

func newEscapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escape [text...]",
		Short: i18n.T("Encode text as JSON string content"),
		Long: i18n.T(`Encode each argument, or standard input when no arguments are given, as
the content of a JSON string literal.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodec(cmd, args, jsonstr.Escape)
		},
	}
}

func newUnescapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unescape [text...]",
		Short: i18n.T("Decode JSON string content"),
		Long: i18n.T(`Decode each argument, or standard input when no arguments are given, from
JSON string literal content into plain text.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodec(cmd, args, jsonstr.Unescape)
		},
	}
}

func runCodec(cmd *cobra.Command, args []string, fn func(string) string) error {
	out := cmd.OutOrStdout()
	if len(args) > 0 {
		for _, a := range args {
			fmt.Fprintln(out, fn(a))
		}
		return nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, fn(strings.TrimSuffix(string(data), "\n")))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// loadDocuments resolves the documents to work on: the files given on the
// command line, or all documents of .openjson.yaml.
func loadDocuments(format string, files []string) ([]config.ResolvedDocument, error) {
	if len(files) > 0 {
		f, err := config.AdHoc(format, files...)
		if err != nil {
			return nil, err
		}
		return f.Resolve(".")
	}

	f, err := config.LoadFile(rootDir)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf(i18n.T("no %s found in %s, pass source files explicitly"), config.FileName, rootDir)
	}
	return f.Resolve(rootDir)
}

func handlerFor(format, name string) (*kvjson.Handler, error) {
	return kvjson.ForFormat(format, kvjson.WithLogger(log.Logger.With().Str("document", name).Logger()))
}

// relToRoot returns path relative to the project root when it lies inside it.
func relToRoot(path string) string {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func containsLang(langs []string, lang string) bool {
	for _, l := range langs {
		if config.SameLanguage(strings.TrimSpace(l), lang) {
			return true
		}
	}
	return false
}

// writeFile writes content to path, creating parent directories.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
