package tutor

import "strings"

// Document is the formatted output of one render pass. It is built fresh
// for every frame and never patched incrementally.
type Document struct {
	Blocks []Block
}

// Block is a sealed interface representing one top-level rendered region.
// The unexported marker method prevents external implementations.
type Block interface {
	block()
}

// ProseBlock holds already-styled text (paragraphs, headings, lists).
type ProseBlock struct {
	Text string
}

func (ProseBlock) block() {}

// CodeBlock is an embedded code region awaiting or carrying syntax
// highlighting. Label and Gutter are styled decorations supplied by the
// formatter; Source is the raw code without a trailing newline.
type CodeBlock struct {
	Language string
	Source   string
	Label    string
	Gutter   string

	body        string
	highlighted bool
}

func (*CodeBlock) block() {}

// Interface compliance checks.
var (
	_ Block = ProseBlock{}
	_ Block = (*CodeBlock)(nil)
)

// Highlighted reports whether SetHighlighted has been applied.
func (b *CodeBlock) Highlighted() bool { return b.highlighted }

// SetHighlighted records the highlighted rendition of Source. Only the
// first call has an effect, so highlighters may run over a document any
// number of times.
func (b *CodeBlock) SetHighlighted(body string) {
	if b.highlighted {
		return
	}
	b.body = strings.TrimRight(body, "\n")
	b.highlighted = true
}

// Body returns the text displayed for the block: the highlighted rendition
// when present, otherwise the raw source.
func (b *CodeBlock) Body() string {
	if b.highlighted {
		return b.body
	}
	return b.Source
}

func (b *CodeBlock) String() string {
	var sb strings.Builder
	if b.Label != "" {
		sb.WriteString(b.Label)
		sb.WriteString("\n")
	}
	lines := strings.Split(b.Body(), "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.Gutter)
		sb.WriteString(line)
	}
	return sb.String()
}

// CodeBlocks returns the code regions of d in display order.
func (d *Document) CodeBlocks() []*CodeBlock {
	if d == nil {
		return nil
	}
	var blocks []*CodeBlock
	for _, b := range d.Blocks {
		if cb, ok := b.(*CodeBlock); ok {
			blocks = append(blocks, cb)
		}
	}
	return blocks
}

// String returns the displayed text. Blocks are separated by a blank line.
func (d *Document) String() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch b := b.(type) {
		case ProseBlock:
			sb.WriteString(strings.TrimRight(b.Text, "\n"))
		case *CodeBlock:
			sb.WriteString(b.String())
		}
	}
	return sb.String()
}
