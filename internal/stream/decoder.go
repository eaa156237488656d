// Package stream turns a chunked SSE response body into ordered text deltas.
//
// The pipeline runs synchronously per chunk: bytes are decoded to text with
// state carried across chunk boundaries, text is split into lines, lines are
// classified into frames, data frames are parsed into deltas and deltas are
// folded into an accumulator. Assembler owns all of that state for one request.
package stream

import (
	"bytes"
	"errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const initialDecodeBuffer = 4096

// Decoder converts successive byte chunks to UTF-8 text. A multi-byte
// sequence split across two chunks is held back until it is complete.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewDecoder returns a Decoder with empty state.
func NewDecoder() *Decoder {
	return &Decoder{
		t:   unicode.UTF8.NewDecoder(),
		dst: make([]byte, initialDecodeBuffer),
	}
}

// Decode appends chunk to any held-back bytes and returns the text that can
// be decoded so far. Invalid sequences are replaced with U+FFFD.
func (d *Decoder) Decode(chunk []byte) string {
	return d.transform(chunk, false)
}

// Flush returns the text for any bytes still held back at end of input and
// resets the decoder.
func (d *Decoder) Flush() string {
	out := d.transform(nil, true)
	d.t.Reset()
	return out
}

func (d *Decoder) transform(chunk []byte, atEOF bool) string {
	src := append(d.pending, chunk...)
	d.pending = nil

	var out bytes.Buffer
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			// The UTF-8 transformer consumes everything it returns nil for.
		case errors.Is(err, transform.ErrShortDst):
			if nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = bytes.Clone(src)
			return out.String()
		default:
			return out.String()
		}
	}
	return out.String()
}
