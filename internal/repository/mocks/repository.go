package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/model"
)

// MockRepository is a testify mock for repository.Repository.
type MockRepository struct {
	mock.Mock
}

func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *MockRepository) LoadLatestConversation(ctx context.Context) (*model.Conversation, error) {
	ret := m.Called(ctx)
	var r0 *model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (m *MockRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	ret := m.Called(ctx, conversationID)
	var r0 *model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (m *MockRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	ret := m.Called(ctx)
	var r0 []*model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (m *MockRepository) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	return m.Called(ctx, conversationID, title).Error(0)
}

func (m *MockRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	return m.Called(ctx, conversationID).Error(0)
}

func (m *MockRepository) AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error {
	return m.Called(ctx, conversationID, msg).Error(0)
}

func (m *MockRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	ret := m.Called(ctx, conversationID)
	var r0 []model.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Message)
	}
	return r0, ret.Error(1)
}
