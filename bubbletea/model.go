package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/tutor"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the tutor TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner is the typing indicator shown while busy.
	Spinner spinner.Model

	cfg     Config
	session *tutor.Session
	styles  Styles
	logger  *slog.Logger

	blocks []MessageBlock
	// active is the block the current stream renders into.
	active *AssistantTextBlock

	running  bool
	activity string
	cancel   context.CancelFunc
	frameCh  chan tutor.Frame
	doneCh   chan StreamDoneMsg
	err      error
	ready    bool
}

// New creates a new TUI Model driving cfg's collaborators over session.
func New(cfg Config, session *tutor.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question, or /help"
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = tutor.MaxQuestionLength

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return Model{
		Input:   ti,
		Spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		cfg:     cfg,
		session: session,
		styles:  NewStyles(cfg.Theme),
		logger:  logger,
	}
}

// Running returns whether a stream or upload is in progress.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		// Dropping the tick once idle stops the spinner.
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case FrameMsg:
		if m.active != nil {
			m.active.SetFrame(msg.Frame)
			m = m.refresh()
		}
		if m.frameCh != nil {
			return m, listenForFrame(m.frameCh, m.doneCh)
		}
		return m, nil

	case StreamDoneMsg:
		return m.finishStream(msg)

	case UploadDoneMsg:
		return m.finishUpload(msg)
	}

	// Pass remaining messages to sub-components.
	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Output area.
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")

	// Status line.
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	// Input area.
	b.WriteString(m.Input.View())

	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	follow := !m.ready || m.Viewport.AtBottom()
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m = m.refresh()
	if follow {
		m.Viewport.GotoBottom()
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			m.activity = "Cancelling..."
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// Only non-character keys reach the viewport, so 'j'/'k' type into the
	// input rather than scroll. Scrolling works while a stream runs too; the
	// input only takes keys when idle.
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	// Submitting jumps back to the newest output.
	m.Viewport.GotoBottom()

	c, err := parseCommand(text)
	if err != nil {
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
		return m.refresh(), nil
	}

	switch c.kind {
	case cmdAsk:
		q, err := m.session.NewQuestion(c.arg)
		if err != nil {
			m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
			return m.refresh(), nil
		}
		m.session.AppendEntry(tutor.ChatEntry{Role: tutor.RoleUser, Text: q.Text, Timestamp: time.Now()})
		m.blocks = append(m.blocks, NewUserMessageBlock(q.Text, m.styles))
		return m.beginStream("Answering...", func(ctx context.Context) (io.ReadCloser, error) {
			return m.cfg.Backend.Ask(ctx, q)
		})

	case cmdSummarize:
		doc, err := m.session.DocumentAt(c.n)
		if err != nil {
			m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
			return m.refresh(), nil
		}
		prompt := "Summarize " + doc.Name
		m.session.AppendEntry(tutor.ChatEntry{Role: tutor.RoleUser, Text: prompt, Timestamp: time.Now()})
		m.blocks = append(m.blocks, NewUserMessageBlock(prompt, m.styles))
		return m.beginStream("Summarizing "+doc.Name+"...", func(ctx context.Context) (io.ReadCloser, error) {
			return m.cfg.Backend.Summarize(ctx, doc)
		})

	case cmdUpload:
		m.blocks = append(m.blocks, NewNoticeBlock("Uploading "+c.arg, m.styles))
		ctx, cancel := context.WithCancel(context.Background())
		m = m.beginBusy("Uploading...", cancel)
		return m.refresh(), tea.Batch(
			startUpload(ctx, m.cfg.Expand, m.cfg.Upload, c.arg),
			m.Spinner.Tick,
		)

	case cmdDept:
		if c.arg == "" {
			m.blocks = append(m.blocks, NewNoticeBlock(m.departmentNotice(), m.styles))
			return m.refresh(), nil
		}
		m.session.SetDepartment(c.arg)
		m.blocks = append(m.blocks, NewSuccessBlock("Department set to "+m.session.Department, m.styles))
		m = m.save()

	case cmdDocs:
		m.blocks = append(m.blocks, NewNoticeBlock(m.documentList(), m.styles))

	case cmdClear:
		m.session.Reset()
		m.blocks = nil
		m.active = nil
		m = m.save()

	case cmdHelp:
		m.blocks = append(m.blocks, NewNoticeBlock(helpText, m.styles))
	}
	return m.refresh(), nil
}

// beginStream starts a new assistant block and streams open's body into
// it through the renderer at the current viewport width.
func (m Model) beginStream(activity string, open OpenFunc) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m = m.beginBusy(activity, cancel)

	target := newFrameTarget()
	m.frameCh = target.ch
	m.doneCh = make(chan StreamDoneMsg, 1)
	m.active = NewAssistantTextBlock(m.cfg.Formatter, m.cfg.Highlighter)
	m.blocks = append(m.blocks, m.active)

	r := *m.cfg.Renderer
	r.Width = m.Viewport.Width

	return m.refresh(), tea.Batch(
		startStream(ctx, open, r, target, m.doneCh),
		listenForFrame(m.frameCh, m.doneCh),
		m.Spinner.Tick,
	)
}

func (m Model) beginBusy(activity string, cancel context.CancelFunc) Model {
	m.running = true
	m.activity = activity
	m.cancel = cancel
	m.Input.Blur()
	return m
}

func (m Model) endBusy() (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.activity = ""
	m.cancel = nil
	return m, m.Input.Focus()
}

func (m Model) finishStream(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	m.frameCh = nil
	m.doneCh = nil
	m, cmd := m.endBusy()

	active := m.active
	m.active = nil

	if msg.Err != nil {
		m.blocks = removeBlock(m.blocks, active)
		if errors.Is(msg.Err, context.Canceled) {
			m.blocks = append(m.blocks, NewNoticeBlock("Cancelled.", m.styles))
		} else {
			m.logger.Error("stream failed to open", slog.Any("error", msg.Err))
			m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
		}
		return m.refresh(), cmd
	}

	m.session.AppendEntry(tutor.ChatEntry{
		Role:        tutor.RoleAssistant,
		Text:        msg.Text,
		Interrupted: msg.State == tutor.StreamStateInterrupted || msg.State == tutor.StreamStateCancelled,
		Timestamp:   time.Now(),
	})
	m = m.save()
	return m.refresh(), cmd
}

func (m Model) finishUpload(msg UploadDoneMsg) (tea.Model, tea.Cmd) {
	m, cmd := m.endBusy()
	for _, doc := range msg.Documents {
		m.session.AddDocument(doc)
		n := len(m.session.Documents)
		m.blocks = append(m.blocks, NewSuccessBlock(fmt.Sprintf("Uploaded %s as document %d", doc.Name, n), m.styles))
	}
	for _, err := range msg.Errs {
		m.logger.Warn("upload failed", slog.Any("error", err))
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
	}
	if len(msg.Documents) > 0 {
		m = m.save()
	}
	return m.refresh(), cmd
}

func (m Model) save() Model {
	if m.cfg.Save == nil {
		return m
	}
	if err := m.cfg.Save(*m.session); err != nil {
		m.logger.Error("save session", slog.Any("error", err))
		m.err = err
	}
	return m
}

func (m Model) departmentNotice() string {
	if m.session.Department == "" {
		return "No department set. Use /dept <name>."
	}
	return "Department: " + m.session.Department
}

func (m Model) documentList() string {
	if len(m.session.Documents) == 0 {
		return "No documents uploaded. Use /upload <glob>."
	}
	var b strings.Builder
	b.WriteString("Documents:")
	for i, d := range m.session.Documents {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, d.Name)
		if d.Size > 0 {
			fmt.Fprintf(&b, " (%s)", formatSize(d.Size))
		}
	}
	return b.String()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// renderSession creates blocks from existing session entries.
func (m Model) renderSession() Model {
	for _, e := range m.session.Entries {
		switch e.Role {
		case tutor.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(e.Text, m.styles))
		case tutor.RoleAssistant:
			m.blocks = append(m.blocks, NewStaticAssistantBlock(e.Text, m.cfg.Formatter, m.cfg.Highlighter))
		}
	}
	return m
}

func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	// Follow new output only when the user has not scrolled up.
	follow := m.Viewport.AtBottom()
	m.Viewport.SetContent(m.renderContent())
	if follow {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) renderContent() string {
	var parts []string
	for _, block := range m.blocks {
		if v := block.View(m.Viewport.Width); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n\n")
}

func removeBlock(blocks []MessageBlock, target MessageBlock) []MessageBlock {
	out := blocks[:0:0]
	for _, b := range blocks {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}
