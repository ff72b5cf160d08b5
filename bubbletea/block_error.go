package bubbletea

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/tutor"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// errorKinds maps tutor sentinels to the title shown in front of the
// message. The first match wins.
var errorKinds = []struct {
	sentinel error
	title    string
}{
	{tutor.ErrValidation, "Invalid"},
	{tutor.ErrDocumentNotFound, "Not found"},
	{tutor.ErrBackend, "Backend error"},
}

// ErrorBlock renders a failed command, question, or upload. The title
// names the kind of failure when err wraps a tutor sentinel.
type ErrorBlock struct {
	title   string
	message string
	styles  Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	b := &ErrorBlock{title: "Error", message: err.Error(), styles: styles}
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			b.title = k.title
			// The sentinel's own text adds nothing after the title.
			b.message = strings.TrimSuffix(b.message, ": "+k.sentinel.Error())
			break
		}
	}
	return b
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render(b.title + ": " + b.message)
	return lipgloss.NewStyle().Width(width).Render(content)
}
