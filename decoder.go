package tutor

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder converts a sequence of UTF-8 byte chunks to text. Incomplete
// multi-byte sequences at the end of a chunk are held until the next call.
// Malformed bytes decode to U+FFFD rather than aborting the stream.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewDecoder returns a Decoder with empty carry-over state.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text decodable from the carried-over bytes followed by
// chunk. When atEOF is true any incomplete trailing sequence is flushed as
// U+FFFD and the decoder is left empty.
func (d *Decoder) Decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	// Every invalid byte expands to three bytes of U+FFFD.
	if need := 3*len(src) + 4; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	var out []byte
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]
		switch err {
		case transform.ErrShortSrc:
			d.pending = append([]byte(nil), src...)
			return string(out)
		case transform.ErrShortDst:
			dst = make([]byte, 2*len(dst))
			continue
		}
		if atEOF {
			d.t.Reset()
		}
		return string(out)
	}
}

// Pending reports how many bytes of an incomplete sequence are held.
func (d *Decoder) Pending() int { return len(d.pending) }
