package stream

import (
	"bytes"
	"strings"
)

// LineBuffer accumulates decoded text that has not yet been terminated by a
// newline. Complete lines are extracted with Next and dropped from the buffer.
type LineBuffer struct {
	buf []byte
}

// Write appends decoded text.
func (b *LineBuffer) Write(text string) {
	b.buf = append(b.buf, text...)
}

// Next extracts the next complete line without its terminator. A trailing
// carriage return is stripped. It returns false when no newline is buffered;
// the partial line stays in place.
func (b *LineBuffer) Next() (string, bool) {
	i := bytes.IndexByte(b.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(b.buf[:i])
	b.buf = b.buf[i+1:]
	return strings.TrimSuffix(line, "\r"), true
}

// PushBack puts line, re-terminated with a newline, in front of the buffer so
// that the next call to Next returns it again.
func (b *LineBuffer) PushBack(line string) {
	buf := make([]byte, 0, len(line)+1+len(b.buf))
	buf = append(buf, line...)
	buf = append(buf, '\n')
	b.buf = append(buf, b.buf...)
}

// Rest removes and returns whatever is buffered.
func (b *LineBuffer) Rest() string {
	rest := string(b.buf)
	b.buf = nil
	return rest
}

// Len is the number of buffered bytes.
func (b *LineBuffer) Len() int { return len(b.buf) }
