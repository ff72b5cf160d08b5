package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*NoticeBlock)(nil)

// NoticeBlock renders client-side feedback: command results, upload
// confirmations, help text.
type NoticeBlock struct {
	text  string
	style lipgloss.Style
}

// NewNoticeBlock creates a muted NoticeBlock.
func NewNoticeBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, style: styles.Muted}
}

// NewSuccessBlock creates a NoticeBlock in the success color.
func NewSuccessBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, style: styles.Success}
}

func (b *NoticeBlock) View(width int) string {
	return lipgloss.NewStyle().Width(width).Render(b.style.Render(b.text))
}
