package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		line string
		want Frame
	}{
		{name: "Empty", line: "", want: Frame{Kind: FrameBlank}},
		{name: "Whitespace only", line: "  \t", want: Frame{Kind: FrameBlank}},
		{name: "Comment", line: ": keep-alive", want: Frame{Kind: FrameComment}},
		{name: "Bare colon", line: ":", want: Frame{Kind: FrameComment}},
		{name: "Done", line: "data: [DONE]", want: Frame{Kind: FrameDone}},
		{name: "Done without space", line: "data:[DONE]", want: Frame{Kind: FrameDone}},
		{name: "Data", line: `data: {"a":1}`, want: Frame{Kind: FrameData, Payload: `{"a":1}`}},
		{name: "Data with trailing space", line: "data: {}  ", want: Frame{Kind: FrameData, Payload: "{}"}},
		{name: "Event field", line: "event: message", want: Frame{Kind: FrameUnknown}},
		{name: "Id field", line: "id: 7", want: Frame{Kind: FrameUnknown}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.line))
		})
	}
}

func TestFrameKind_String(t *testing.T) {
	assert.Equal(t, "data", FrameData.String())
	assert.Equal(t, "done", FrameDone.String())
	assert.Equal(t, "unknown", FrameKind(42).String())
}

func TestLineBuffer(t *testing.T) {
	var b LineBuffer
	b.Write("one\r\ntw")

	line, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, "one", line)

	_, ok = b.Next()
	assert.False(t, ok)
	assert.Equal(t, 2, b.Len())

	b.Write("o\n")
	b.PushBack("zero")

	line, _ = b.Next()
	assert.Equal(t, "zero", line)
	line, _ = b.Next()
	assert.Equal(t, "two", line)

	b.Write("tail")
	assert.Equal(t, "tail", b.Rest())
	assert.Equal(t, 0, b.Len())
}
