package interfaces

import (
	"context"

	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/service"
)

// This file defines the interfaces the API layer depends on. Handlers take
// these instead of the concrete services so they can be tested with mocks.

// ChatService defines the contract for the active conversation and its request lifecycle.
type ChatService interface {
	Subscribe(obs model.Observer) (unsubscribe func())
	State() model.StreamState
	Messages() []model.Message
	ConversationID() string
	Cancel() bool
	SendMessage(ctx context.Context, content string) service.Result
	NewChat(ctx context.Context) (*model.Conversation, error)
	ClearHistory(ctx context.Context) error
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*model.FullConversation, error)
	UpdateConversationTitle(ctx context.Context, conversationID, title string) error
}

// RelayService defines the contract for forwarding a conversation to the gateway.
type RelayService interface {
	Start(ctx context.Context, messages []llm.Message) (*service.RelayStream, error)
}

// ModelService defines the contract for listing gateway models.
type ModelService interface {
	List(ctx context.Context) (*llm.ListModelsResponse, error)
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	InitAndGet(ctx context.Context, defaultSystemPrompt string) (*service.Settings, error)
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}
