// Package goldmark formats markdown text into tutor documents using goldmark
// for parsing and lipgloss for ANSI styling. Fenced and indented code blocks
// become separate tutor.CodeBlock regions so a highlighter can process them.
package goldmark

import "github.com/fwojciec/tutor"

// Interface compliance check.
var _ tutor.Formatter = (*Formatter)(nil)

// DefaultWidth is used when a non-positive width is requested.
const DefaultWidth = 80

// Formatter implements [tutor.Formatter]. It is safe for concurrent use.
type Formatter struct {
	r *ansiRenderer
}

// NewFormatter creates a Formatter styled with theme.
func NewFormatter(theme tutor.Theme) *Formatter {
	return &Formatter{r: newRenderer(theme)}
}

// Format parses markdown source and returns the formatted document.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// left at full width without reflow. Incomplete markup (an unterminated
// emphasis run, an unclosed fence) renders as goldmark parses it: literal
// delimiters and a code block running to the end of input respectively.
func (f *Formatter) Format(source string, width int) *tutor.Document {
	if source == "" {
		return &tutor.Document{}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return f.r.render([]byte(source), width)
}

// Render parses markdown source and returns ANSI-styled terminal output.
func Render(source string, width int, theme tutor.Theme) string {
	return NewFormatter(theme).Format(source, width).String()
}
