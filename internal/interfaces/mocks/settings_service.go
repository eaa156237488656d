package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nova-chat/backend/internal/service"
)

// MockSettingsService is a testify mock for interfaces.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func NewMockSettingsService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSettingsService {
	m := &MockSettingsService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsService) InitAndGet(ctx context.Context, defaultSystemPrompt string) (*service.Settings, error) {
	ret := m.Called(ctx, defaultSystemPrompt)
	var r0 *service.Settings
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Settings)
	}
	return r0, ret.Error(1)
}

func (m *MockSettingsService) Get(ctx context.Context) (*service.Settings, error) {
	ret := m.Called(ctx)
	var r0 *service.Settings
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Settings)
	}
	return r0, ret.Error(1)
}

func (m *MockSettingsService) Save(ctx context.Context, settings *service.Settings) error {
	return m.Called(ctx, settings).Error(0)
}
