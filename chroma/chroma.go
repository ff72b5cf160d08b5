// Package chroma highlights tutor code blocks with ANSI colors using the
// chroma lexers and terminal formatters.
package chroma

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fwojciec/tutor"
)

// Interface compliance check.
var _ tutor.Highlighter = (*Highlighter)(nil)

const (
	// DefaultStyle is the chroma style used when none is configured.
	DefaultStyle = "monokai"
	// DefaultFormatter targets 256-color terminals.
	DefaultFormatter = "terminal256"

	// maxCached bounds the memo of highlighted sources. Streaming re-renders
	// the same finished code blocks on every chunk, so hits dominate.
	maxCached = 256
)

// Highlighter implements [tutor.Highlighter]. It is safe for concurrent use.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter

	mu    sync.Mutex
	cache map[cacheKey]string
}

type cacheKey struct {
	lang   string
	source string
}

// Option configures a [Highlighter].
type Option func(*Highlighter)

// WithStyle selects a chroma style by name. Unknown names fall back to
// chroma's default style.
func WithStyle(name string) Option {
	return func(h *Highlighter) { h.style = styles.Get(name) }
}

// WithFormatter selects a chroma formatter by name (e.g. "terminal16m").
func WithFormatter(name string) Option {
	return func(h *Highlighter) { h.formatter = formatters.Get(name) }
}

// New creates a Highlighter.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		style:     styles.Get(DefaultStyle),
		formatter: formatters.Get(DefaultFormatter),
		cache:     make(map[cacheKey]string),
	}
	for _, o := range opts {
		o(h)
	}
	if h.style == nil {
		h.style = styles.Fallback
	}
	if h.formatter == nil {
		h.formatter = formatters.Fallback
	}
	return h
}

// Highlight sets the highlighted body of every code block in doc that has
// not been highlighted yet. Blocks that fail to tokenise keep their plain
// source and are still marked so they are not retried.
func (h *Highlighter) Highlight(doc *tutor.Document) {
	for _, cb := range doc.CodeBlocks() {
		if cb.Highlighted() {
			continue
		}
		cb.SetHighlighted(h.highlight(cb.Language, cb.Source))
	}
}

func (h *Highlighter) highlight(lang, source string) string {
	key := cacheKey{lang: lang, source: source}
	h.mu.Lock()
	if out, ok := h.cache[key]; ok {
		h.mu.Unlock()
		return out
	}
	h.mu.Unlock()

	out := h.format(lang, source)

	h.mu.Lock()
	if len(h.cache) >= maxCached {
		clear(h.cache)
	}
	h.cache[key] = out
	h.mu.Unlock()
	return out
}

func (h *Highlighter) format(lang, source string) string {
	if source == "" {
		return ""
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	// Format line by line so colors never span a newline and the gutter
	// prefixed by Document.String lands outside any escape sequence.
	want := strings.Count(source, "\n") + 1
	lines := make([]string, 0, want)
	for _, line := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		if len(lines) == want {
			break
		}
		tokens := make([]chroma.Token, 0, len(line))
		for _, tok := range line {
			tok.Value = strings.TrimSuffix(tok.Value, "\n")
			if tok.Value != "" {
				tokens = append(tokens, tok)
			}
		}
		var sb strings.Builder
		if err := h.formatter.Format(&sb, h.style, chroma.Literator(tokens...)); err != nil {
			return source
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
