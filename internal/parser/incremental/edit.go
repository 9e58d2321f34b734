// Package incremental provides statute-granularity incremental parsing.
//
// A Parser owns a per-statute cache keyed by statute id, each entry
// carrying the byte range of its source. Applying a batch of TextEdits
// invalidates only the statutes whose ranges overlap an edit; the rest
// keep their previously built ASTs across the reparse.
package incremental

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Errors returned by TextEdit.Apply.
var (
	ErrRangeInvalid     = errors.New("invalid edit range")
	ErrOffsetOutOfRange = errors.New("edit offset out of range")
	ErrNotCharBoundary  = errors.New("edit offset not on a character boundary")
)

// TextEdit describes one half-open byte-range replacement:
// the bytes in [Start, End) are replaced by NewText.
type TextEdit struct {
	Start   int    // Inclusive start offset
	End     int    // Exclusive end offset
	NewText string // Replacement text
}

// NewTextEdit creates an edit replacing [start, end) with text.
func NewTextEdit(start, end int, text string) TextEdit {
	return TextEdit{Start: start, End: end, NewText: text}
}

// Insert creates an edit inserting text at pos.
func Insert(pos int, text string) TextEdit {
	return TextEdit{Start: pos, End: pos, NewText: text}
}

// Delete creates an edit removing the bytes in [start, end).
func Delete(start, end int) TextEdit {
	return TextEdit{Start: start, End: end}
}

// Replace creates an edit replacing [start, end) with text.
func Replace(start, end int, text string) TextEdit {
	return TextEdit{Start: start, End: end, NewText: text}
}

// String returns a human-readable representation of the edit.
func (e TextEdit) String() string {
	if e.Start == e.End {
		return fmt.Sprintf("Insert(%d, %q)", e.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete[%d:%d)", e.Start, e.End)
	}
	return fmt.Sprintf("Replace[%d:%d) with %q", e.Start, e.End, e.NewText)
}

// Delta returns the change in buffer length caused by this edit.
func (e TextEdit) Delta() int {
	return len(e.NewText) - (e.End - e.Start)
}

// overlaps reports whether the edit's half-open range overlaps [start, end).
func (e TextEdit) overlaps(start, end int) bool {
	return e.Start < end && e.End > start
}

// Apply returns text with [Start, End) replaced by NewText.
// Offsets that are out of range, inverted, or not aligned to UTF-8
// character boundaries are caller contract violations and fail loudly
// rather than silently repairing the buffer.
func (e TextEdit) Apply(text string) (string, error) {
	if e.Start < 0 || e.Start > e.End {
		return "", fmt.Errorf("%w: [%d:%d)", ErrRangeInvalid, e.Start, e.End)
	}
	if e.End > len(text) {
		return "", fmt.Errorf("%w: end %d exceeds length %d", ErrOffsetOutOfRange, e.End, len(text))
	}
	if !isCharBoundary(text, e.Start) || !isCharBoundary(text, e.End) {
		return "", fmt.Errorf("%w: [%d:%d)", ErrNotCharBoundary, e.Start, e.End)
	}
	return text[:e.Start] + e.NewText + text[e.End:], nil
}

// isCharBoundary reports whether pos falls on a UTF-8 rune boundary.
func isCharBoundary(text string, pos int) bool {
	if pos == 0 || pos == len(text) {
		return true
	}
	return utf8.RuneStart(text[pos])
}
