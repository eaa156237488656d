package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/llm"
)

// MockChatClient is a testify mock for llm.ChatClient.
type MockChatClient struct {
	mock.Mock
}

func NewMockChatClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatClient {
	m := &MockChatClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatClient) Open(ctx context.Context, messages []llm.Message) (io.ReadCloser, error) {
	ret := m.Called(ctx, messages)

	var r0 io.ReadCloser
	if rf, ok := ret.Get(0).(func(context.Context, []llm.Message) io.ReadCloser); ok {
		r0 = rf(ctx, messages)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(io.ReadCloser)
	}
	return r0, ret.Error(1)
}
