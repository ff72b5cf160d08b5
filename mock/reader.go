package mock

import (
	"io"
	"sync/atomic"
)

var _ io.ReadCloser = (*ChunkReader)(nil)

// ChunkReader delivers Chunks one per Read call, then returns Err, or
// io.EOF when Err is nil. A chunk larger than the caller's buffer is split
// across reads. Close records the call and returns CloseErr.
type ChunkReader struct {
	Chunks   [][]byte
	Err      error
	CloseErr error

	closed atomic.Bool
}

// NewChunkReader builds a ChunkReader from string chunks.
func NewChunkReader(err error, chunks ...string) *ChunkReader {
	r := &ChunkReader{Err: err}
	for _, c := range chunks {
		r.Chunks = append(r.Chunks, []byte(c))
	}
	return r
}

// Read returns the next chunk.
func (r *ChunkReader) Read(p []byte) (int, error) {
	if len(r.Chunks) == 0 {
		if r.Err != nil {
			return 0, r.Err
		}
		return 0, io.EOF
	}
	n := copy(p, r.Chunks[0])
	if n < len(r.Chunks[0]) {
		r.Chunks[0] = r.Chunks[0][n:]
	} else {
		r.Chunks = r.Chunks[1:]
	}
	return n, nil
}

// Close marks the reader closed.
func (r *ChunkReader) Close() error {
	r.closed.Store(true)
	return r.CloseErr
}

// Closed reports whether Close was called.
func (r *ChunkReader) Closed() bool { return r.closed.Load() }
