package bubbletea

import "github.com/fwojciec/tutor"

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock displays the latest frame of a streamed answer. Each
// frame replaces the previous one wholesale. When the block is viewed at a
// width other than the one the frame was rendered at, the frame's text is
// re-formatted and cached per width.
type AssistantTextBlock struct {
	formatter   tutor.Formatter
	highlighter tutor.Highlighter

	frame   tutor.Frame
	byWidth map[int]string
}

// NewAssistantTextBlock creates an empty block for a streamed answer.
func NewAssistantTextBlock(f tutor.Formatter, h tutor.Highlighter) *AssistantTextBlock {
	return &AssistantTextBlock{
		formatter:   f,
		highlighter: h,
		byWidth:     make(map[int]string),
	}
}

// NewStaticAssistantBlock creates a block for an answer that is already
// complete, such as one restored from a saved session.
func NewStaticAssistantBlock(text string, f tutor.Formatter, h tutor.Highlighter) *AssistantTextBlock {
	b := NewAssistantTextBlock(f, h)
	b.frame = tutor.Frame{Seq: 1, Text: text, State: tutor.StreamStateComplete}
	return b
}

// SetFrame replaces the displayed content with f. Frames older than the
// current one are ignored.
func (b *AssistantTextBlock) SetFrame(f tutor.Frame) {
	if f.Seq <= b.frame.Seq {
		return
	}
	b.frame = f
	clear(b.byWidth)
}

// Frame returns the frame currently displayed.
func (b *AssistantTextBlock) Frame() tutor.Frame { return b.frame }

func (b *AssistantTextBlock) View(width int) string {
	if b.frame.Text == "" {
		return ""
	}
	if b.frame.Document != nil && b.frame.Width == width {
		return b.frame.Document.String()
	}
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	doc := b.formatter.Format(b.frame.Text, width)
	if b.highlighter != nil {
		b.highlighter.Highlight(doc)
	}
	rendered := doc.String()
	b.byWidth[width] = rendered
	return rendered
}
