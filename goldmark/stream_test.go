package goldmark_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/fwojciec/tutor"
	"github.com/fwojciec/tutor/chroma"
	"github.com/fwojciec/tutor/goldmark"
	"github.com/fwojciec/tutor/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boldWorld matches "world" preceded by an SGR sequence that enables bold.
var boldWorld = regexp.MustCompile("\x1b\\[(?:[0-9;]*;)?1(?:;[0-9;]*)?m(?:\x1b\\[[0-9;]*m)*world")

func consume(t *testing.T, chunks ...string) (string, []tutor.Frame) {
	t.Helper()
	var frames []tutor.Frame
	target := &mock.Target{ReplaceFn: func(f tutor.Frame) { frames = append(frames, f) }}
	r := tutor.NewStreamingRenderer(
		goldmark.NewFormatter(tutor.DefaultTheme()),
		tutor.WithHighlighter(chroma.New()),
		tutor.WithWidth(80),
	)
	text := r.Consume(context.Background(), mock.NewChunkReader(nil, chunks...), target)
	require.NotEmpty(t, frames)
	return text, frames
}

func TestStreamingRenderer_EndToEnd(t *testing.T) {
	t.Parallel()

	t.Run("partial bold resolves to bold world", func(t *testing.T) {
		t.Parallel()
		text, frames := consume(t, "Hel", "lo **wor", "ld**")
		assert.Equal(t, "Hello **world**", text)

		// Mid-stream the emphasis is unterminated and shows literally.
		assert.Contains(t, stripANSI(frames[1].Document.String()), "lo **wor")

		final := frames[len(frames)-1]
		assert.Equal(t, tutor.StreamStateComplete, final.State)
		out := final.Document.String()
		assert.Contains(t, stripANSI(out), "Hello world")
		assert.NotContains(t, stripANSI(out), "**")
		assert.Regexp(t, boldWorld, out)
	})

	t.Run("final render is independent of chunking", func(t *testing.T) {
		t.Parallel()
		answer := "## Photosynthesis\n\nPlants convert *light* into energy.\n\n```python\ndef atp():\n    return 'energy'\n```\n\n- chlorophyll\n- glucose"
		_, whole := consume(t, answer)
		_, bytewise := consume(t, strings.Split(answer, "")...)
		_, split := consume(t, answer[:17], answer[17:40], answer[40:])

		want := whole[len(whole)-1].Document.String()
		assert.Equal(t, want, bytewise[len(bytewise)-1].Document.String())
		assert.Equal(t, want, split[len(split)-1].Document.String())
	})

	t.Run("streamed code blocks arrive highlighted", func(t *testing.T) {
		t.Parallel()
		_, frames := consume(t, "```go\nfunc ", "main() {}\n", "```\n")
		for _, f := range frames {
			for _, cb := range f.Document.CodeBlocks() {
				assert.True(t, cb.Highlighted())
			}
		}
		final := frames[len(frames)-1].Document
		require.Len(t, final.CodeBlocks(), 1)
		assert.Contains(t, stripANSI(final.String()), "func main() {}")
	})

	t.Run("interruption inside a code fence renders annotation as prose", func(t *testing.T) {
		t.Parallel()
		var frames []tutor.Frame
		target := &mock.Target{ReplaceFn: func(f tutor.Frame) { frames = append(frames, f) }}
		r := tutor.NewStreamingRenderer(goldmark.NewFormatter(tutor.DefaultTheme()), tutor.WithHighlighter(chroma.New()))
		body := mock.NewChunkReader(errors.New("network down"), "```go\nx := ")
		text := r.Consume(context.Background(), body, target)

		assert.True(t, strings.HasPrefix(text, "```go\nx := "))
		final := frames[len(frames)-1]
		assert.Equal(t, tutor.StreamStateInterrupted, final.State)
		require.Len(t, final.Document.CodeBlocks(), 1)
		assert.Equal(t, "x := ", final.Document.CodeBlocks()[0].Source)
		assert.Contains(t, stripANSI(final.Document.String()), "[response interrupted: network down]")
	})
	t.Run("code inside a numbered step arrives highlighted", func(t *testing.T) {
		t.Parallel()
		text, frames := consume(t, "1. Install it:\n\n   ```go\n   func ", "main() {}\n   ```\n2. Run ", "it.")
		assert.Equal(t, "1. Install it:\n\n   ```go\n   func main() {}\n   ```\n2. Run it.", text)

		final := frames[len(frames)-1].Document
		require.Len(t, final.CodeBlocks(), 1)
		assert.True(t, final.CodeBlocks()[0].Highlighted())
		assert.Contains(t, final.String(), "\x1b[38;5;")
		out := stripANSI(final.String())
		assert.Contains(t, out, "func main() {}")
		assert.Contains(t, out, "2. Run it.")
	})
	t.Run("interruption inside a tilde fence renders annotation as prose", func(t *testing.T) {
		t.Parallel()
		var frames []tutor.Frame
		target := &mock.Target{ReplaceFn: func(f tutor.Frame) { frames = append(frames, f) }}
		r := tutor.NewStreamingRenderer(goldmark.NewFormatter(tutor.DefaultTheme()), tutor.WithHighlighter(chroma.New()))
		body := mock.NewChunkReader(errors.New("network down"), "~~~go\nx := ")
		r.Consume(context.Background(), body, target)

		final := frames[len(frames)-1]
		require.Len(t, final.Document.CodeBlocks(), 1)
		assert.Equal(t, "x := ", final.Document.CodeBlocks()[0].Source)
		last, ok := final.Document.Blocks[len(final.Document.Blocks)-1].(tutor.ProseBlock)
		require.True(t, ok)
		assert.Contains(t, stripANSI(last.Text), "[response interrupted: network down]")
	})
}
