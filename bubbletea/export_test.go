package bubbletea

import "github.com/fwojciec/tutor"

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// NewFrameTarget exports the coalescing stream target for testing.
func NewFrameTarget() (tutor.Target, <-chan tutor.Frame, func()) {
	t := newFrameTarget()
	return t, t.ch, t.close
}
