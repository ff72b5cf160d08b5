package bubbletea_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/tutor"
	bt "github.com/fwojciec/tutor/bubbletea"
	"github.com/fwojciec/tutor/goldmark"
	"github.com/fwojciec/tutor/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessageBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("renders text with prompt prefix", func(t *testing.T) {
		t.Parallel()
		block := bt.NewUserMessageBlock("hello world", bt.NewStyles(tutor.DefaultTheme()))
		assert.Contains(t, block.View(80), "> hello world")
	})

	t.Run("wraps to width", func(t *testing.T) {
		t.Parallel()
		block := bt.NewUserMessageBlock(strings.Repeat("word ", 20), bt.NewStyles(tutor.DefaultTheme()))
		for _, line := range strings.Split(block.View(30), "\n") {
			assert.LessOrEqual(t, lipgloss.Width(line), 30)
		}
	})
}

func TestErrorBlock_View(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(tutor.DefaultTheme())
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain error", errors.New("something broke"), "Error: something broke"},
		{"validation", fmt.Errorf("question must not be empty: %w", tutor.ErrValidation), "Invalid: question must not be empty"},
		{"missing document", fmt.Errorf("#3: %w", tutor.ErrDocumentNotFound), "Not found: #3"},
		{"backend", fmt.Errorf("http: ask: status 503: overloaded: %w", tutor.ErrBackend), "Backend error: http: ask: status 503: overloaded"},
		{"sentinel in the middle is kept", fmt.Errorf("retry failed: %w", fmt.Errorf("%w: timeout", tutor.ErrBackend)), "Backend error: retry failed: backend error: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := bt.NewErrorBlock(tt.err, styles).View(200)
			assert.Contains(t, view, tt.want)
			assert.NotContains(t, view, tt.want+": ")
		})
	}
}

func TestNoticeBlock_View(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(tutor.DefaultTheme())
	assert.Contains(t, bt.NewNoticeBlock("Documents:\n  1. a.md", styles).View(80), "1. a.md")
	assert.Contains(t, bt.NewSuccessBlock("Uploaded a.md", styles).View(80), "Uploaded a.md")
}

func TestAssistantTextBlock(t *testing.T) {
	t.Parallel()
	formatter := goldmark.NewFormatter(tutor.DefaultTheme())

	t.Run("empty before first frame", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(formatter, nil)
		assert.Empty(t, block.View(80))
	})

	t.Run("frame at view width is shown as rendered", func(t *testing.T) {
		t.Parallel()
		calls := 0
		f := &mock.Formatter{FormatFn: func(source string, width int) *tutor.Document {
			calls++
			return formatter.Format(source, width)
		}}
		block := bt.NewAssistantTextBlock(f, nil)
		doc := &tutor.Document{Blocks: []tutor.Block{tutor.ProseBlock{Text: "pre-rendered"}}}
		block.SetFrame(tutor.Frame{Seq: 1, Text: "source", Width: 80, Document: doc})

		assert.Equal(t, "pre-rendered", block.View(80))
		assert.Zero(t, calls)
	})

	t.Run("other widths are re-formatted once and cached", func(t *testing.T) {
		t.Parallel()
		formats, highlights := 0, 0
		f := &mock.Formatter{FormatFn: func(source string, width int) *tutor.Document {
			formats++
			return formatter.Format(source, width)
		}}
		h := &mock.Highlighter{HighlightFn: func(*tutor.Document) { highlights++ }}
		block := bt.NewAssistantTextBlock(f, h)
		block.SetFrame(frame(1, "some **bold** text", 80, tutor.StreamStateComplete))

		first := block.View(40)
		second := block.View(40)
		assert.Equal(t, first, second)
		assert.Contains(t, first, "bold")
		assert.Equal(t, 1, formats)
		assert.Equal(t, 1, highlights)
	})

	t.Run("new frame invalidates cache", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(formatter, nil)
		block.SetFrame(frame(1, "one", 80, tutor.StreamStateStreaming))
		assert.Contains(t, block.View(40), "one")

		block.SetFrame(frame(2, "one two", 80, tutor.StreamStateComplete))
		assert.Contains(t, block.View(40), "one two")
		assert.Equal(t, tutor.StreamStateComplete, block.Frame().State)
	})

	t.Run("older frames are ignored", func(t *testing.T) {
		t.Parallel()
		block := bt.NewAssistantTextBlock(formatter, nil)
		block.SetFrame(frame(3, "latest", 80, tutor.StreamStateStreaming))
		block.SetFrame(frame(2, "stale", 80, tutor.StreamStateStreaming))
		block.SetFrame(frame(3, "duplicate", 80, tutor.StreamStateStreaming))

		assert.Equal(t, 3, block.Frame().Seq)
		assert.Contains(t, block.View(80), "latest")
	})

	t.Run("static block formats saved text", func(t *testing.T) {
		t.Parallel()
		block := bt.NewStaticAssistantBlock("```go\nx := 1\n```", formatter, nil)
		view := block.View(80)
		require.NotEmpty(t, view)
		assert.Contains(t, view, "x := 1")
		assert.Equal(t, tutor.StreamStateComplete, block.Frame().State)
	})
}

func TestNewStyles(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(tutor.DefaultTheme())

	assert.Equal(t, lipgloss.Color("4"), styles.UserMsg.GetForeground())
	assert.True(t, styles.UserMsg.GetBold())
	assert.Equal(t, lipgloss.Color("1"), styles.Error.GetForeground())
	assert.Equal(t, lipgloss.Color("2"), styles.Success.GetForeground())
	assert.Equal(t, lipgloss.Color("8"), styles.Muted.GetForeground())
	assert.True(t, styles.Muted.GetFaint())
	assert.Equal(t, lipgloss.Color("5"), styles.Accent.GetForeground())
	assert.Equal(t, lipgloss.Color("6"), styles.Department.GetForeground())
}

func TestNewStyles_NegativeIndexUsesNoColor(t *testing.T) {
	t.Parallel()
	theme := tutor.DefaultTheme()
	theme.Error = -1
	styles := bt.NewStyles(theme)
	assert.Equal(t, lipgloss.NoColor{}, styles.Error.GetForeground())
}
