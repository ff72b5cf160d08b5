package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/tutor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type ansiRenderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme tutor.Theme) *ansiRenderer {
	return &ansiRenderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *ansiRenderer) render(source []byte, width int) *tutor.Document {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &blockWriter{doc: &tutor.Document{}}
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, source, width, w, "")
		w.flush()
	}
	return w.doc
}

// blockWriter accumulates styled prose and cuts it into document blocks
// around code regions, so code nested in lists and quotes stays reachable
// by the highlighter.
type blockWriter struct {
	doc   *tutor.Document
	prose strings.Builder
}

// writeLines writes s line by line, each prefixed by indent.
func (w *blockWriter) writeLines(indent, s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		w.prose.WriteString(indent + line + "\n")
	}
}

func (w *blockWriter) flush() {
	prose := strings.TrimRight(w.prose.String(), "\n")
	w.prose.Reset()
	if strings.TrimSpace(prose) == "" {
		return
	}
	w.doc.Blocks = append(w.doc.Blocks, tutor.ProseBlock{Text: prose})
}

func (w *blockWriter) code(cb *tutor.CodeBlock) {
	w.flush()
	w.doc.Blocks = append(w.doc.Blocks, cb)
}

// codeBlock builds a code region. indent prefixes the label and every
// gutter, placing nested code under its list item.
func (r *ansiRenderer) codeBlock(node ast.Node, source []byte, indent string) *tutor.CodeBlock {
	var lang string
	if fc, ok := node.(*ast.FencedCodeBlock); ok {
		lang = string(fc.Language(source))
	}
	cb := &tutor.CodeBlock{
		Language: lang,
		Source:   codeSource(node.Lines(), source),
		Gutter:   indent + r.muted.Render("│") + " ",
	}
	if lang != "" {
		cb.Label = indent + r.muted.Render(lang)
	}
	return cb
}

func codeSource(lines *text.Segments, source []byte) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *ansiRenderer) renderBlock(node ast.Node, source []byte, width int, w *blockWriter, indent string) {
	wrap := max(width-len(indent), 10)
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		inline := r.collectInline(n, source)
		w.writeLines(indent, lipgloss.NewStyle().Width(wrap).Render(inline))

	case *ast.Heading:
		inline := r.collectInline(n, source)
		w.writeLines(indent, lipgloss.NewStyle().Width(wrap).Render(r.accent.Render(inline)))

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.code(r.codeBlock(n, source, indent))

	case *ast.Blockquote:
		// Quotes are flattened: each child becomes its own block.
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderBlock(c, source, width, w, indent)
			w.flush()
		}

	case *ast.List:
		r.renderList(n, source, width, w, indent)

	case *ast.ThematicBreak:
		w.writeLines(indent, "---")

	case *ast.HTMLBlock:
		var sb strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			sb.Write(line.Value(source))
		}
		w.writeLines(indent, sb.String())

	case *east.Table:
		w.writeLines(indent, r.renderTable(n, source))

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderBlock(c, source, width, w, indent)
		}
	}
}

func (r *ansiRenderer) renderList(node *ast.List, source []byte, width int, w *blockWriter, indent string) {
	ordered := node.IsOrdered()
	start := node.Start
	itemNum := 0

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		var marker string
		if ordered {
			itemNum++
			marker = fmt.Sprintf("%d. ", start+itemNum-1)
		} else {
			marker = "- "
		}
		continuation := indent + strings.Repeat(" ", len(marker))
		written := false

		// flushItem writes pending inline text behind the marker, or behind
		// continuation space once the marker has been used.
		var itemText strings.Builder
		flushItem := func(force bool) {
			if itemText.Len() == 0 && (written || !force) {
				return
			}
			m := marker
			if written {
				m = strings.Repeat(" ", len(marker))
			}
			r.writeListItem(w, indent, m, itemText.String(), width)
			itemText.Reset()
			written = true
		}

		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if itemText.Len() > 0 {
					itemText.WriteString(" ")
				}
				itemText.WriteString(r.collectInline(in, source))
			case *ast.List:
				flushItem(false)
				r.renderList(in, source, width, w, indent+"  ")
				written = true
			default:
				flushItem(true)
				r.renderBlock(ic, source, width, w, continuation)
			}
		}
		flushItem(true)
	}
}

// writeListItem writes a list item with proper continuation-line indentation.
func (r *ansiRenderer) writeListItem(w *blockWriter, indent, marker, content string, width int) {
	prefix := indent + marker
	itemWidth := max(width-len(prefix), 10)
	wrapped := lipgloss.NewStyle().Width(itemWidth).Render(content)
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			w.prose.WriteString(prefix + line + "\n")
		} else {
			w.prose.WriteString(continuation + line + "\n")
		}
	}
}

// renderTable returns one line per row with cells joined by a muted rule.
// Header cells are bold. Columns are not aligned.
func (r *ansiRenderer) renderTable(node *east.Table, source []byte) string {
	var buf strings.Builder
	sep := r.muted.Render(" │ ")
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			content := r.collectInline(cell, source)
			if header {
				content = r.bold.Render(content)
			}
			cells = append(cells, content)
		}
		buf.WriteString(strings.Join(cells, sep))
		buf.WriteString("\n")
	}
	return buf.String()
}

// collectInline recursively collects styled inline text from a node's children.
func (r *ansiRenderer) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (r *ansiRenderer) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.collectInline(n, source)
		switch n.Level {
		case 1:
			buf.WriteString(r.italic.Render(inner))
		default:
			// Level 2 = bold. Goldmark represents ***bold italic*** as
			// nested Emphasis nodes, so level 3+ is not reachable.
			buf.WriteString(r.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(r.strike.Render(r.collectInline(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.collectInline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderInline(c, source, buf)
		}
	}
}
