package repository

import (
	"context"

	"nova-chat/backend/internal/model"
)

// Repository defines the storage operations for conversations and their
// messages. Implementations exist for SQLite, BoltDB and Redis.
type Repository interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	// LoadLatestConversation returns the most recently updated conversation,
	// or ErrNotFound when there is none.
	LoadLatestConversation(ctx context.Context) (*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	UpdateConversationTitle(ctx context.Context, conversationID, title string) error
	// DeleteConversation removes the conversation and all its messages.
	// Deleting a missing conversation is not an error.
	DeleteConversation(ctx context.Context, conversationID string) error

	// AppendMessage stores msg and bumps the conversation's updated_at.
	AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error
	// ListMessages returns messages in conversation order.
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}
