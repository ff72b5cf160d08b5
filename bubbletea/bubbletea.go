// Package bubbletea provides a Bubble Tea TUI for the tutor client.
package bubbletea

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/tutor"
)

// ExpandFunc resolves an upload pattern to file paths.
type ExpandFunc func(pattern string) ([]string, error)

// UploadFunc uploads the file at path.
type UploadFunc func(ctx context.Context, path string) (tutor.UploadedDocument, error)

// SaveFunc persists the session after it changes.
type SaveFunc func(s tutor.Session) error

// Config holds the collaborators a Model drives.
type Config struct {
	Backend     tutor.Backend
	Renderer    *tutor.StreamingRenderer
	Formatter   tutor.Formatter
	Highlighter tutor.Highlighter
	Expand      ExpandFunc
	Upload      UploadFunc
	Save        SaveFunc // optional
	Theme       tutor.Theme
	Logger      *slog.Logger // optional
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		return fm, err
	}
	return m, err
}

// FrameMsg delivers the newest rendered frame of the active stream.
type FrameMsg struct {
	Frame tutor.Frame
}

// StreamDoneMsg signals that the active stream has ended. Err is set only
// when the stream could not be opened; failures after that are reported
// inside Text by an annotation and reflected in State.
type StreamDoneMsg struct {
	Text  string
	State tutor.StreamState
	Err   error
}

// UploadDoneMsg reports the outcome of an /upload command.
type UploadDoneMsg struct {
	Documents []tutor.UploadedDocument
	Errs      []error
}

// OpenFunc opens a response body for the active stream.
type OpenFunc func(ctx context.Context) (io.ReadCloser, error)

// frameTarget is the tutor.Target handed to the StreamingRenderer. It keeps
// at most one pending frame: a newer frame replaces an undelivered older
// one, so a slow UI skips intermediate renders. The final frame is never
// replaced because nothing follows it.
type frameTarget struct {
	ch   chan tutor.Frame
	last tutor.StreamState
}

func newFrameTarget() *frameTarget {
	return &frameTarget{ch: make(chan tutor.Frame, 1)}
}

// Replace implements tutor.Target. It never blocks.
func (t *frameTarget) Replace(f tutor.Frame) {
	t.last = f.State
	for {
		select {
		case t.ch <- f:
			return
		default:
		}
		select {
		case <-t.ch:
		default:
		}
	}
}

func (t *frameTarget) close() { close(t.ch) }

// startStream opens the body and feeds it through the renderer. Frames are
// delivered through target; the outcome is sent on doneCh once target is
// closed.
func startStream(ctx context.Context, open OpenFunc, r tutor.StreamingRenderer, target *frameTarget, doneCh chan<- StreamDoneMsg) tea.Cmd {
	return func() tea.Msg {
		body, err := open(ctx)
		if err != nil {
			target.close()
			doneCh <- StreamDoneMsg{Err: err}
			return nil
		}
		defer body.Close()
		text := r.Consume(ctx, body, target)
		target.close()
		doneCh <- StreamDoneMsg{Text: text, State: target.last}
		return nil
	}
}

// listenForFrame waits for the next frame. When the target is closed it
// reads the outcome from doneCh and returns StreamDoneMsg.
func listenForFrame(ch <-chan tutor.Frame, doneCh <-chan StreamDoneMsg) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return FrameMsg{Frame: f}
	}
}

// startUpload expands pattern and uploads every match in order. Individual
// failures do not stop the batch.
func startUpload(ctx context.Context, expand ExpandFunc, upload UploadFunc, pattern string) tea.Cmd {
	return func() tea.Msg {
		paths, err := expand(pattern)
		if err != nil {
			return UploadDoneMsg{Errs: []error{err}}
		}
		var msg UploadDoneMsg
		for _, p := range paths {
			if ctx.Err() != nil {
				msg.Errs = append(msg.Errs, ctx.Err())
				break
			}
			doc, err := upload(ctx, p)
			if err != nil {
				msg.Errs = append(msg.Errs, err)
				continue
			}
			msg.Documents = append(msg.Documents, doc)
		}
		return msg
	}
}
