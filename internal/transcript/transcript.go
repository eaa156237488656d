// Package transcript holds the ordered message list of the active conversation.
package transcript

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"nova-chat/backend/internal/model"
)

var (
	// ErrStreamingInProgress is returned when a message would be appended
	// behind a message that is still streaming.
	ErrStreamingInProgress = errors.New("transcript: a message is still streaming")
	// ErrUnknownMessage is returned when an id does not match the streaming message.
	ErrUnknownMessage = errors.New("transcript: unknown or settled message")
)

// Transcript is an ordered, concurrency-safe list of messages. At most one
// message is streaming and it is always the last one.
type Transcript struct {
	mu       sync.RWMutex
	messages []model.Message
}

// New returns a transcript seeded with msgs.
func New(msgs []model.Message) *Transcript {
	t := &Transcript{}
	t.Reset(msgs)
	return t
}

// Reset replaces the whole transcript. Streaming flags are cleared.
func (t *Transcript) Reset(msgs []model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = make([]model.Message, len(msgs))
	copy(t.messages, msgs)
	for i := range t.messages {
		t.messages[i].Streaming = false
	}
}

// Append adds a settled message at the end.
func (t *Transcript) Append(msg model.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamingLocked() {
		return ErrStreamingInProgress
	}
	msg.Streaming = false
	t.messages = append(t.messages, msg)
	return nil
}

// BeginAssistant appends an empty assistant placeholder that accepts content
// through SetContent until Finish or RemoveIfEmpty is called.
func (t *Transcript) BeginAssistant(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamingLocked() {
		return ErrStreamingInProgress
	}
	t.messages = append(t.messages, model.Message{
		ID:        id,
		Role:      model.RoleAssistant,
		CreatedAt: time.Now().UTC(),
		Streaming: true,
	})
	return nil
}

// SetContent replaces the content of the streaming message identified by id.
func (t *Transcript) SetContent(id, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.streamingIndexLocked(id)
	if err != nil {
		return err
	}
	t.messages[i].Content = text
	return nil
}

// Finish clears the streaming flag of id and returns the settled message.
func (t *Transcript) Finish(id string) (model.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.streamingIndexLocked(id)
	if err != nil {
		return model.Message{}, err
	}
	t.messages[i].Streaming = false
	return t.messages[i], nil
}

// RemoveIfEmpty drops the message id if it has no content, otherwise it is
// settled like Finish. It reports whether the message was removed.
func (t *Transcript) RemoveIfEmpty(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID != id {
			continue
		}
		if t.messages[i].Content != "" {
			t.messages[i].Streaming = false
			return false
		}
		t.messages = append(t.messages[:i], t.messages[i+1:]...)
		return true
	}
	return false
}

// Snapshot returns a copy of the messages.
func (t *Transcript) Snapshot() []model.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len is the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *Transcript) streamingLocked() bool {
	n := len(t.messages)
	return n > 0 && t.messages[n-1].Streaming
}

func (t *Transcript) streamingIndexLocked(id string) (int, error) {
	n := len(t.messages)
	if n == 0 || t.messages[n-1].ID != id || !t.messages[n-1].Streaming {
		return -1, fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	return n - 1, nil
}
