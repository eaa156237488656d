package stream

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxStalledChunks bounds how many consecutive chunks a pushed-back
	// data frame may stay unresolved before the stream is failed.
	DefaultMaxStalledChunks = 16
	// DefaultMaxPendingBytes bounds the text buffered without yielding a frame.
	DefaultMaxPendingBytes = 64 * 1024
)

// Update is the result of applying one fragment. Text is the whole
// accumulator after the fragment was appended.
type Update struct {
	Fragment string
	Text     string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxStalledChunks overrides DefaultMaxStalledChunks. Values below 1 are ignored.
func WithMaxStalledChunks(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxStalled = n
		}
	}
}

// WithMaxPendingBytes overrides DefaultMaxPendingBytes. Values below 1 are ignored.
func WithMaxPendingBytes(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxPending = n
		}
	}
}

// Assembler decodes, frames and accumulates one response body. It is not
// safe for concurrent use; chunks must be fed in arrival order.
type Assembler struct {
	dec   *Decoder
	lines LineBuffer
	text  strings.Builder

	// pending is set while a data frame that failed to parse sits pushed back
	// at the front of lines.
	pending bool
	stalled int

	maxStalled int
	maxPending int

	done bool
	err  error
}

// NewAssembler returns an Assembler ready for the first chunk.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		dec:        NewDecoder(),
		maxStalled: DefaultMaxStalledChunks,
		maxPending: DefaultMaxPendingBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed processes one chunk and returns the updates it produced, in order.
// After the end-of-stream marker has been seen, further chunks are ignored.
func (a *Assembler) Feed(chunk []byte) ([]Update, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.done {
		return nil, nil
	}
	a.lines.Write(a.dec.Decode(chunk))

	updates := a.drain()
	if a.pending {
		a.stalled++
		if a.stalled > a.maxStalled {
			a.err = fmt.Errorf("%w: frame unresolved after %d chunks", ErrMalformedFrame, a.stalled)
			return updates, a.err
		}
	} else {
		a.stalled = 0
	}
	if a.lines.Len() > a.maxPending {
		a.err = fmt.Errorf("%w: %d bytes buffered without a complete frame", ErrMalformedFrame, a.lines.Len())
		return updates, a.err
	}
	return updates, nil
}

// Finish is called at end of input. It flushes the decoder and gives a final
// unterminated line one chance to parse. A frame that is still incomplete is
// dropped and reported with ErrMalformedFrame; updates already applied stand.
func (a *Assembler) Finish() ([]Update, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.done {
		return nil, nil
	}
	a.lines.Write(a.dec.Flush())

	updates := a.drain()
	if a.pending {
		a.err = fmt.Errorf("%w: incomplete frame at end of stream", ErrMalformedFrame)
		return updates, a.err
	}

	rest := a.lines.Rest()
	if a.done || rest == "" {
		return updates, nil
	}
	frame := Classify(strings.TrimSuffix(rest, "\r"))
	switch frame.Kind {
	case FrameDone:
		a.done = true
	case FrameData:
		delta, err := ParseDelta(frame.Payload)
		if err != nil {
			a.err = fmt.Errorf("%w: %v", ErrMalformedFrame, err)
			return updates, a.err
		}
		if u, ok := a.apply(delta); ok {
			updates = append(updates, u)
		}
	}
	return updates, nil
}

// Text is the accumulated content so far.
func (a *Assembler) Text() string { return a.text.String() }

// Done reports whether the end-of-stream marker was seen.
func (a *Assembler) Done() bool { return a.done }

func (a *Assembler) drain() []Update {
	var updates []Update
	a.pending = false
	for !a.done {
		line, ok := a.lines.Next()
		if !ok {
			break
		}
		frame := Classify(line)
		switch frame.Kind {
		case FrameDone:
			a.done = true
			continue
		case FrameData:
		default:
			continue
		}

		delta, err := ParseDelta(frame.Payload)
		if errors.Is(err, ErrIncompleteFrame) {
			a.lines.PushBack(line)
			a.pending = true
			break
		}
		if u, ok := a.apply(delta); ok {
			updates = append(updates, u)
		}
	}
	return updates
}

func (a *Assembler) apply(d Delta) (Update, bool) {
	if d.Content == "" {
		return Update{}, false
	}
	a.text.WriteString(d.Content)
	return Update{Fragment: d.Content, Text: a.text.String()}, true
}
