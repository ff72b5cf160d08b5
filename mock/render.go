package mock

import "github.com/fwojciec/tutor"

// Target is a test double for tutor.Target. Replace is a no-op when
// ReplaceFn is nil because many tests only care about Consume's result.
type Target struct {
	ReplaceFn func(f tutor.Frame)
}

// Replace delegates to ReplaceFn.
func (t *Target) Replace(f tutor.Frame) {
	if t.ReplaceFn == nil {
		return
	}
	t.ReplaceFn(f)
}

// Formatter is a test double for tutor.Formatter.
type Formatter struct {
	FormatFn func(source string, width int) *tutor.Document
}

// Format delegates to FormatFn.
func (f *Formatter) Format(source string, width int) *tutor.Document {
	return f.FormatFn(source, width)
}

// Highlighter is a test double for tutor.Highlighter.
type Highlighter struct {
	HighlightFn func(doc *tutor.Document)
}

// Highlight delegates to HighlightFn.
func (h *Highlighter) Highlight(doc *tutor.Document) {
	h.HighlightFn(doc)
}
