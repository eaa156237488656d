package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/service"
)

// MockChatService is a testify mock for interfaces.ChatService.
type MockChatService struct {
	mock.Mock
}

func NewMockChatService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatService) Subscribe(obs model.Observer) func() {
	ret := m.Called(obs)
	if rf, ok := ret.Get(0).(func()); ok {
		return rf
	}
	return func() {}
}

func (m *MockChatService) State() model.StreamState {
	return m.Called().Get(0).(model.StreamState)
}

func (m *MockChatService) Messages() []model.Message {
	ret := m.Called()
	var r0 []model.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Message)
	}
	return r0
}

func (m *MockChatService) ConversationID() string {
	return m.Called().String(0)
}

func (m *MockChatService) Cancel() bool {
	return m.Called().Bool(0)
}

// SendMessage returns the configured Result. A func(context.Context, string)
// service.Result return value is invoked instead, which lets tests emit
// events to subscribed observers.
func (m *MockChatService) SendMessage(ctx context.Context, content string) service.Result {
	ret := m.Called(ctx, content)
	if rf, ok := ret.Get(0).(func(context.Context, string) service.Result); ok {
		return rf(ctx, content)
	}
	return ret.Get(0).(service.Result)
}

func (m *MockChatService) NewChat(ctx context.Context) (*model.Conversation, error) {
	ret := m.Called(ctx)
	var r0 *model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (m *MockChatService) ClearHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockChatService) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	ret := m.Called(ctx)
	var r0 []*model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (m *MockChatService) GetConversation(ctx context.Context, conversationID string) (*model.FullConversation, error) {
	ret := m.Called(ctx, conversationID)
	var r0 *model.FullConversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.FullConversation)
	}
	return r0, ret.Error(1)
}

func (m *MockChatService) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	return m.Called(ctx, conversationID, title).Error(0)
}
