package model

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Conversation stores metadata about a chat.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message stores a single message in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	// Streaming is set on the trailing assistant message while deltas are
	// still being applied to it. It is never persisted.
	Streaming bool `json:"streaming,omitempty"`
}

// FullConversation includes the conversation metadata and all its messages.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// StreamState is the lifecycle state of one outbound chat request.
type StreamState string

const (
	StateIdle      StreamState = "idle"
	StateSending   StreamState = "sending"
	StateStreaming StreamState = "streaming"
	StateCompleted StreamState = "completed"
	StateCancelled StreamState = "cancelled"
	StateFailed    StreamState = "failed"
)

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// NotificationKind classifies a notification so clients can react to it.
type NotificationKind string

const (
	KindRateLimit  NotificationKind = "rate_limit"
	KindUsageLimit NotificationKind = "usage_limit"
	KindTransport  NotificationKind = "transport"
	KindStream     NotificationKind = "stream"
	KindSaveFailed NotificationKind = "save_failed"
	KindInfo       NotificationKind = "info"
)

// Notification is a toast-style message for the user.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Kind    NotificationKind  `json:"kind"`
	Message string            `json:"message"`
}

// EventType distinguishes the payloads delivered to observers.
type EventType string

const (
	EventMessages     EventType = "messages"
	EventNotification EventType = "notification"
	EventState        EventType = "state"
)

// Event is delivered to observers on every transcript mutation, state change
// and notification. Messages always carries the full transcript snapshot.
type Event struct {
	Type           EventType     `json:"type"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Messages       []Message     `json:"messages,omitempty"`
	State          StreamState   `json:"state,omitempty"`
	Notification   *Notification `json:"notification,omitempty"`
}

// Observer receives events. Implementations must treat the payload as read-only.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
