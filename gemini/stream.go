package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// body adapts the SDK's streaming iterator to an io.ReadCloser. A producer
// goroutine writes each response's text into a pipe; Close cancels the
// request and unblocks the producer.
type body struct {
	*io.PipeReader
	cancel context.CancelFunc
}

// NewBodyFromIter returns a reader over the text of seq. Exported for
// testing.
func NewBodyFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	return newBody(ctx, cancel, seq)
}

func newBody(ctx context.Context, cancel context.CancelFunc, seq iter.Seq2[*genai.GenerateContentResponse, error]) *body {
	pr, pw := io.Pipe()
	go func() {
		defer cancel()
		for resp, err := range seq {
			if err != nil {
				pw.CloseWithError(fmt.Errorf("gemini: %w", err))
				return
			}
			if err := ctx.Err(); err != nil {
				pw.CloseWithError(err)
				return
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			if _, err := io.WriteString(pw, text); err != nil {
				// Reader closed.
				return
			}
		}
		pw.Close()
	}()
	return &body{PipeReader: pr, cancel: cancel}
}

func (b *body) Close() error {
	b.cancel()
	return b.PipeReader.Close()
}

// responseText concatenates the answer text of the first candidate,
// skipping thought parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
