// Package lockfile implements openjson.lock, a lock file that tracks MD5
// checksums of extracted strings per document. Comparing a fresh extraction
// against it tells which strings are new, changed or gone since the last
// parse, so only those need to go back to translators.
//
// The lock file is stored alongside .openjson.yaml as openjson.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/openjson/openstring"
)

// LockFileName is the default lock file name.
const LockFileName = "openjson.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the openjson.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // target -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Changes lists the keys that differ between a lock file target and a
// fresh extraction. Each list is sorted.
type Changes struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TargetKey builds the lock file key for a source document, e.g.
// "locales/en.json".
func TargetKey(filePath string) string {
	return filepath.ToSlash(filePath)
}

// EntryContent builds the content hashed for a string. Context and plural
// categories are included so that changing either counts as a change.
func EntryContent(s *openstring.OpenString) string {
	var b strings.Builder
	b.WriteString(s.Context())
	for _, rule := range s.Rules() {
		b.WriteByte(0)
		if s.Pluralized() {
			b.WriteString(openstring.RuleName(rule))
			b.WriteByte('=')
		}
		b.WriteString(s.Strings[rule])
	}
	return b.String()
}

// Diff compares strs against the checksums recorded for target.
func (lf *LockFile) Diff(target string, strs []*openstring.OpenString) Changes {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[target]
	var c Changes
	current := make(map[string]bool, len(strs))
	for _, s := range strs {
		current[s.Key()] = true
		old, ok := existing[s.Key()]
		switch {
		case !ok:
			c.Added = append(c.Added, s.Key())
		case old != Hash(EntryContent(s)):
			c.Changed = append(c.Changed, s.Key())
		}
	}
	for key := range existing {
		if !current[key] {
			c.Removed = append(c.Removed, key)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Changed)
	sort.Strings(c.Removed)
	return c
}

// Record replaces the checksums of target with those of strs.
func (lf *LockFile) Record(target string, strs []*openstring.OpenString) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	sums := make(map[string]string, len(strs))
	for _, s := range strs {
		sums[s.Key()] = Hash(EntryContent(s))
	}
	lf.Checksums[target] = sums
}

// RemoveTarget removes all checksums for a target.
func (lf *LockFile) RemoveTarget(target string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, target)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of targets and total keys in the lock file.
func (lf *LockFile) Stats() (targets, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns sorted list of target keys.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}

	var parts []string
	for _, t := range lf.Targets() {
		lf.mu.Lock()
		n := len(lf.Checksums[t])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, n))
	}
	return fmt.Sprintf("%d targets, %d keys (%s)", targets, keys, strings.Join(parts, ", "))
}
