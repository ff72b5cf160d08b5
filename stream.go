package tutor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
)

// StreamState indicates where a streamed response is in its lifecycle.
type StreamState int

const (
	StreamStateStreaming   StreamState = iota // Chunks still arriving.
	StreamStateComplete                       // Body returned io.EOF.
	StreamStateInterrupted                    // Body returned a non-EOF error.
	StreamStateCancelled                      // Context cancelled mid-stream.
)

// Finished reports whether s is a terminal state.
func (s StreamState) Finished() bool { return s != StreamStateStreaming }

func (s StreamState) String() string {
	switch s {
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateInterrupted:
		return "interrupted"
	case StreamStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Frame is one full rendering of the accumulated text. Seq increases by one
// per frame within a stream, starting at 1.
type Frame struct {
	Seq      int
	Text     string
	Width    int
	Document *Document
	State    StreamState
}

// Target is the display surface a stream renders into. Replace swaps the
// displayed content for f wholesale. A Target is owned by one stream at a
// time; Replace is called sequentially from the consuming goroutine.
type Target interface {
	Replace(f Frame)
}

// Formatter renders Markdown-like source into a Document wrapped to width.
// Format must be deterministic and must tolerate incomplete markup.
type Formatter interface {
	Format(source string, width int) *Document
}

// Highlighter applies syntax highlighting to the code blocks of a document.
// Blocks already highlighted must be left untouched.
type Highlighter interface {
	Highlight(doc *Document)
}

// DefaultChunkSize is the read buffer size used when ChunkSize is zero.
const DefaultChunkSize = 4096

// StreamingRenderer turns a byte stream into progressively updated frames.
type StreamingRenderer struct {
	formatter   Formatter
	highlighter Highlighter
	logger      *slog.Logger

	// Width is the column width frames are formatted at.
	Width int
	// ChunkSize bounds a single Read. Zero means DefaultChunkSize.
	ChunkSize int
}

// RendererOption configures a StreamingRenderer.
type RendererOption func(*StreamingRenderer)

// WithHighlighter sets the highlighter run over every frame.
func WithHighlighter(h Highlighter) RendererOption {
	return func(r *StreamingRenderer) { r.highlighter = h }
}

// WithLogger sets the logger for stream lifecycle records.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *StreamingRenderer) { r.logger = l }
}

// WithWidth sets the render width.
func WithWidth(width int) RendererOption {
	return func(r *StreamingRenderer) { r.Width = width }
}

// NewStreamingRenderer creates a StreamingRenderer that formats with f.
func NewStreamingRenderer(f Formatter, opts ...RendererOption) *StreamingRenderer {
	r := &StreamingRenderer{
		formatter: f,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// streamSession is the state of one in-flight stream. It is owned by the
// Consume call that created it and never shared.
type streamSession struct {
	text     strings.Builder
	target   Target
	seq      int
	chunks   int
	bytes    int
	finished bool
}

// Consume reads body to completion, rendering the accumulated text into
// target after every chunk, and returns the accumulated text.
//
// Read failures never escape: the text gains a visible annotation, a final
// frame is rendered, and the annotated text is returned. Cancellation of
// ctx is checked between reads and handled the same way.
func (r *StreamingRenderer) Consume(ctx context.Context, body io.Reader, target Target) string {
	s := &streamSession{target: target}
	dec := NewDecoder()
	buf := make([]byte, r.chunkSize())
	start := time.Now()

	r.logger.DebugContext(ctx, "stream started", slog.Int("width", r.Width))

	for !s.finished {
		if err := ctx.Err(); err != nil {
			r.fail(ctx, s, dec, err)
			break
		}
		n, err := body.Read(buf)
		if n > 0 {
			s.chunks++
			s.bytes += n
			s.text.WriteString(dec.Decode(buf[:n], false))
			r.render(s, StreamStateStreaming)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.text.WriteString(dec.Decode(nil, true))
			s.finished = true
			r.render(s, StreamStateComplete)
		default:
			r.fail(ctx, s, dec, err)
		}
	}

	r.logger.DebugContext(ctx, "stream finished",
		slog.Int("chunks", s.chunks),
		slog.Int("bytes", s.bytes),
		slog.Int("frames", s.seq),
		slog.Duration("elapsed", time.Since(start)),
	)
	return s.text.String()
}

func (r *StreamingRenderer) fail(ctx context.Context, s *streamSession, dec *Decoder, err error) {
	s.text.WriteString(dec.Decode(nil, true))
	state := StreamStateInterrupted
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		state = StreamStateCancelled
	}
	s.text.WriteString(Annotation(s.text.String(), state, err))
	s.finished = true
	r.render(s, state)
	r.logger.WarnContext(ctx, "stream ended early",
		slog.String("state", state.String()),
		slog.Any("error", err),
	)
}

func (r *StreamingRenderer) render(s *streamSession, state StreamState) {
	text := s.text.String()
	doc := r.formatter.Format(text, r.Width)
	if r.highlighter != nil {
		r.highlighter.Highlight(doc)
	}
	s.seq++
	s.target.Replace(Frame{
		Seq:      s.seq,
		Text:     text,
		Width:    r.Width,
		Document: doc,
		State:    state,
	})
}

func (r *StreamingRenderer) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return DefaultChunkSize
}

// Annotation returns the visible marker appended to text when a stream ends
// in state. It closes an open code fence first so the marker renders as
// prose. Annotation returns "" for StreamStateStreaming and
// StreamStateComplete.
func Annotation(text string, state StreamState, cause error) string {
	var marker string
	switch state {
	case StreamStateInterrupted:
		marker = "**[response interrupted"
		if cause != nil {
			marker += ": " + cause.Error()
		}
		marker += "]**"
	case StreamStateCancelled:
		marker = "**[response cancelled]**"
	default:
		return ""
	}
	var sb strings.Builder
	if fence := OpenFence(text); fence != "" {
		if !strings.HasSuffix(text, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(fence)
	}
	if text != "" || sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(marker)
	return sb.String()
}

// HasUnclosedFence reports whether s ends inside a fenced code block.
func HasUnclosedFence(s string) bool {
	return OpenFence(s) != ""
}

// OpenFence returns the delimiter that closes the fenced code block left
// open at the end of s, or "" when every fence is closed. A fence opens on
// a line starting with at least three backticks or tildes and closes on a
// line holding only the same character repeated at least as many times.
// Leading indentation and blockquote markers are ignored.
func OpenFence(s string) string {
	var open string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimLeft(line, " \t>")
		run := fenceRun(line)
		if run == "" {
			continue
		}
		rest := line[len(run):]
		if open == "" {
			// Backtick fences may not carry backticks in the info string.
			if run[0] == '`' && strings.Contains(rest, "`") {
				continue
			}
			open = run
			continue
		}
		if run[0] == open[0] && len(run) >= len(open) && strings.TrimSpace(rest) == "" {
			open = ""
		}
	}
	return open
}

func fenceRun(line string) string {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := len(line) - len(strings.TrimLeft(line, line[:1]))
	if n < 3 {
		return ""
	}
	return line[:n]
}
