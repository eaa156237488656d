package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/llm"
)

// MockSearchClient is a testify mock for llm.SearchClient.
type MockSearchClient struct {
	mock.Mock
}

func NewMockSearchClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSearchClient {
	m := &MockSearchClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSearchClient) Search(ctx context.Context, query string) (*llm.SearchResult, error) {
	ret := m.Called(ctx, query)

	var r0 *llm.SearchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.SearchResult)
	}
	return r0, ret.Error(1)
}
