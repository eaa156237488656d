package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrIncompleteFrame means a data payload is not well-formed JSON yet.
	// It is a signal to wait for more bytes, not a protocol error.
	ErrIncompleteFrame = errors.New("stream: incomplete frame")

	// ErrMalformedFrame means a pushed-back frame could not be resolved within
	// the configured bounds.
	ErrMalformedFrame = errors.New("stream: malformed frame")
)

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Delta is the text fragment carried by one data frame. Content is empty when
// the frame carries no text, which is normal for role or finish frames.
type Delta struct {
	Content string
}

// ParseDelta extracts choices[0].delta.content from a data payload.
func ParseDelta(payload string) (Delta, error) {
	var chunk completionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Well-formed JSON with an unexpected shape carries no fragment.
			return Delta{}, nil
		}
		return Delta{}, fmt.Errorf("%w: %v", ErrIncompleteFrame, err)
	}
	if len(chunk.Choices) == 0 {
		return Delta{}, nil
	}
	return Delta{Content: chunk.Choices[0].Delta.Content}, nil
}
