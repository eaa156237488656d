package service

import (
	"context"

	"nova-chat/backend/internal/llm"
)

// ModelService exposes the models offered by the gateway.
type ModelService struct {
	llm llm.LLMProvider
}

// NewModelService creates a new ModelService.
func NewModelService(llmProvider llm.LLMProvider) *ModelService {
	return &ModelService{llm: llmProvider}
}

// List returns the models the gateway can serve.
func (s *ModelService) List(ctx context.Context) (*llm.ListModelsResponse, error) {
	return s.llm.ListModels(ctx)
}
