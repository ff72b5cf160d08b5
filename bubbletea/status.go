package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// statusLine lays out the left-hand state message and the right-hand
// session summary on one row of width columns. The summary wins when space
// is short; the message is truncated with an ellipsis.
func (m Model) statusLine() string {
	left, leftStyled := m.statusMessage()

	var right []string
	if m.session.Department != "" {
		right = append(right, m.styles.Department.Render(m.session.Department))
	}
	summary := fmt.Sprintf("docs %d · questions %d", len(m.session.Documents), m.session.QuestionCount)
	right = append(right, m.styles.Muted.Render(summary))
	rightPlain := summary
	if m.session.Department != "" {
		rightPlain = m.session.Department + "  " + summary
	}
	rightStyled := strings.Join(right, "  ")

	width := m.Viewport.Width
	rightW := uniseg.StringWidth(rightPlain)
	avail := width - rightW - 1
	if avail < 1 {
		return rightStyled
	}
	if runewidth.StringWidth(left) > avail {
		left = runewidth.Truncate(left, avail, "…")
		leftStyled = m.statusStyle().Render(left)
	}
	gap := width - uniseg.StringWidth(left) - rightW
	return leftStyled + strings.Repeat(" ", max(gap, 1)) + rightStyled
}

// statusMessage returns the plain and styled left-hand message.
func (m Model) statusMessage() (string, string) {
	var msg string
	switch {
	case m.err != nil:
		msg = fmt.Sprintf("Error: %v", m.err)
	case m.running:
		msg = m.Spinner.View() + " " + m.activity
		return msg, m.Spinner.View() + " " + m.styles.Muted.Render(m.activity)
	default:
		msg = "Enter to send, /help for commands, Ctrl+C to quit"
	}
	return msg, m.statusStyle().Render(msg)
}

func (m Model) statusStyle() lipgloss.Style {
	if m.err != nil {
		return m.styles.Error
	}
	return m.styles.Muted
}
