package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/llm"
)

// MockLLMProvider is a testify mock for llm.LLMProvider.
type MockLLMProvider struct {
	mock.Mock
}

// NewMockLLMProvider creates a mock whose expectations are asserted when the test ends.
func NewMockLLMProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLLMProvider {
	m := &MockLLMProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GenerateStream records the call. When the expectation was registered with
// Run, the Run function is responsible for sending on and closing ch;
// otherwise ch is closed here so callers never block.
func (m *MockLLMProvider) GenerateStream(ctx context.Context, req *llm.GenerateRequest, ch chan<- llm.StreamChunk) error {
	ret := m.Called(ctx, req, ch)

	var err error
	if rf, ok := ret.Get(0).(func(context.Context, *llm.GenerateRequest, chan<- llm.StreamChunk) error); ok {
		err = rf(ctx, req, ch)
	} else {
		close(ch)
		err = ret.Error(0)
	}
	return err
}

func (m *MockLLMProvider) ListModels(ctx context.Context) (*llm.ListModelsResponse, error) {
	ret := m.Called(ctx)

	var r0 *llm.ListModelsResponse
	if rf, ok := ret.Get(0).(func(context.Context) *llm.ListModelsResponse); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.ListModelsResponse)
	}
	return r0, ret.Error(1)
}
