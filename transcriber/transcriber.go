// Package transcriber builds an output text by copying ranges of a source
// text and splicing replacement text in between.
//
// A Transcriber keeps a read cursor into the source that only moves forward.
// Everything before the cursor has either been copied to the destination or
// deliberately skipped. Sections mark spans of already-written output that
// can later be dropped as a unit; sections nest, and each one must be closed
// exactly once with KeepSection or MarkSectionEnd+RemoveSection.
//
// The package knows nothing about the format being transcribed.
package transcriber

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSection is returned when a section operation has no matching open
// (or ended) section.
var ErrNoSection = errors.New("no open section")

// RangeError reports an attempt to move the cursor backwards or past the end
// of the source. It always indicates a bug in the caller.
type RangeError struct {
	Cursor int
	Offset int
	Len    int
}

func (e *RangeError) Error() string {
	if e.Offset > e.Len {
		return fmt.Sprintf("transcriber: offset %d past end of source (%d bytes)", e.Offset, e.Len)
	}
	return fmt.Sprintf("transcriber: cannot copy backwards from %d to %d", e.Cursor, e.Offset)
}

// section is a span of the destination buffer. end is -1 until the section
// is ended.
type section struct {
	start int
	end   int
}

// Transcriber copies a source text into a destination buffer.
type Transcriber struct {
	source   string
	dst      []byte
	cursor   int
	sections []section
}

// New returns a Transcriber reading from source.
func New(source string) *Transcriber {
	return &Transcriber{
		source: source,
		dst:    make([]byte, 0, len(source)),
	}
}

// Source returns the text being transcribed.
func (t *Transcriber) Source() string { return t.source }

// Cursor returns the offset of the next unread source byte.
func (t *Transcriber) Cursor() int { return t.cursor }

// CopyUntil appends source[cursor:offset] to the destination and moves the
// cursor to offset.
func (t *Transcriber) CopyUntil(offset int) error {
	if offset < t.cursor || offset > len(t.source) {
		return &RangeError{Cursor: t.cursor, Offset: offset, Len: len(t.source)}
	}
	t.dst = append(t.dst, t.source[t.cursor:offset]...)
	t.cursor = offset
	return nil
}

// Copy copies the next n source bytes.
func (t *Transcriber) Copy(n int) error {
	return t.CopyUntil(t.cursor + n)
}

// CopyToEnd copies whatever is left of the source.
func (t *Transcriber) CopyToEnd() {
	t.dst = append(t.dst, t.source[t.cursor:]...)
	t.cursor = len(t.source)
}

// Add appends text to the destination without consuming source.
func (t *Transcriber) Add(text string) {
	t.dst = append(t.dst, text...)
}

// Skip advances the cursor by n bytes without copying them.
func (t *Transcriber) Skip(n int) error {
	offset := t.cursor + n
	if n < 0 || offset > len(t.source) {
		return &RangeError{Cursor: t.cursor, Offset: offset, Len: len(t.source)}
	}
	t.cursor = offset
	return nil
}

// MarkSectionStart opens a section at the current end of the destination.
func (t *Transcriber) MarkSectionStart() {
	t.sections = append(t.sections, section{start: len(t.dst), end: -1})
}

// MarkSectionEnd ends the innermost open section at the current end of the
// destination. The section stays pending until RemoveSection or KeepSection.
func (t *Transcriber) MarkSectionEnd() error {
	if len(t.sections) == 0 {
		return ErrNoSection
	}
	t.sections[len(t.sections)-1].end = len(t.dst)
	return nil
}

// RemoveSection deletes the innermost ended section from the destination.
// Anything written after the section's end is preserved.
func (t *Transcriber) RemoveSection() error {
	n := len(t.sections)
	if n == 0 || t.sections[n-1].end < 0 {
		return ErrNoSection
	}
	s := t.sections[n-1]
	t.sections = t.sections[:n-1]
	t.dst = append(t.dst[:s.start], t.dst[s.end:]...)
	return nil
}

// KeepSection closes the innermost section and keeps its text.
func (t *Transcriber) KeepSection() error {
	if len(t.sections) == 0 {
		return ErrNoSection
	}
	t.sections = t.sections[:len(t.sections)-1]
	return nil
}

// OpenSections returns the number of sections not yet kept or removed.
func (t *Transcriber) OpenSections() int { return len(t.sections) }

// LineNumber returns the 1-based line of the cursor in the source.
func (t *Transcriber) LineNumber() int {
	return strings.Count(t.source[:t.cursor], "\n") + 1
}

// Destination returns the text written so far. Call CopyToEnd (or
// CopyUntil(len(source))) first to flush the tail of the source.
func (t *Transcriber) Destination() string {
	return string(t.dst)
}
