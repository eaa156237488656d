package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/llm"
)

// MockModelService is a testify mock for interfaces.ModelService.
type MockModelService struct {
	mock.Mock
}

func NewMockModelService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockModelService {
	m := &MockModelService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockModelService) List(ctx context.Context) (*llm.ListModelsResponse, error) {
	ret := m.Called(ctx)
	var r0 *llm.ListModelsResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.ListModelsResponse)
	}
	return r0, ret.Error(1)
}
