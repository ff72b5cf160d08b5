package tutor

import (
	"context"
	"io"
)

// Backend is the remote service that does the actual document extraction,
// summarization, and question answering. Streaming responses are raw
// incremental text: no framing beyond concatenation.
//
// The returned body must be closed by the caller. Cancellation flows
// through ctx; an HTTP-backed body surfaces it as a read error.
type Backend interface {
	Ask(ctx context.Context, q Question) (io.ReadCloser, error)
	Summarize(ctx context.Context, doc UploadedDocument) (io.ReadCloser, error)
	Upload(ctx context.Context, name string, r io.Reader) (UploadedDocument, error)
}
