package stream

import "strings"

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// FrameKind classifies one line of an SSE stream.
type FrameKind int

const (
	FrameBlank FrameKind = iota
	FrameComment
	FrameData
	FrameDone
	FrameUnknown
)

func (k FrameKind) String() string {
	switch k {
	case FrameBlank:
		return "blank"
	case FrameComment:
		return "comment"
	case FrameData:
		return "data"
	case FrameDone:
		return "done"
	default:
		return "unknown"
	}
}

// Frame is a classified line. Payload is only set for FrameData.
type Frame struct {
	Kind    FrameKind
	Payload string
}

// Classify inspects a line whose terminator has already been stripped.
// Lines that are neither blank, comments nor data events are reported as
// FrameUnknown so callers can ignore them.
func Classify(line string) Frame {
	switch {
	case strings.TrimSpace(line) == "":
		return Frame{Kind: FrameBlank}
	case strings.HasPrefix(line, ":"):
		return Frame{Kind: FrameComment}
	case !strings.HasPrefix(line, dataPrefix):
		return Frame{Kind: FrameUnknown}
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		return Frame{Kind: FrameDone}
	}
	return Frame{Kind: FrameData, Payload: payload}
}
