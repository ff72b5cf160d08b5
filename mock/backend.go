// Package mock provides test doubles for tutor interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/tutor"
)

// Interface compliance checks.
var (
	_ tutor.Backend     = (*Backend)(nil)
	_ tutor.Target      = (*Target)(nil)
	_ tutor.Formatter   = (*Formatter)(nil)
	_ tutor.Highlighter = (*Highlighter)(nil)
)

// Backend is a test double for tutor.Backend.
// Set the function fields for the methods you need.
type Backend struct {
	AskFn       func(ctx context.Context, q tutor.Question) (io.ReadCloser, error)
	SummarizeFn func(ctx context.Context, doc tutor.UploadedDocument) (io.ReadCloser, error)
	UploadFn    func(ctx context.Context, name string, r io.Reader) (tutor.UploadedDocument, error)
}

// Ask delegates to AskFn.
func (b *Backend) Ask(ctx context.Context, q tutor.Question) (io.ReadCloser, error) {
	return b.AskFn(ctx, q)
}

// Summarize delegates to SummarizeFn.
func (b *Backend) Summarize(ctx context.Context, doc tutor.UploadedDocument) (io.ReadCloser, error) {
	return b.SummarizeFn(ctx, doc)
}

// Upload delegates to UploadFn.
func (b *Backend) Upload(ctx context.Context, name string, r io.Reader) (tutor.UploadedDocument, error) {
	return b.UploadFn(ctx, name, r)
}
