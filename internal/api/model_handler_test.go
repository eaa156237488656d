package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nova-chat/backend/internal/api"
	"nova-chat/backend/internal/interfaces/mocks"
	"nova-chat/backend/internal/llm"
)

func setupModelHandler(t *testing.T) (*api.ModelHandler, *mocks.MockModelService) {
	mockSvc := mocks.NewMockModelService(t)
	return api.NewModelHandler(mockSvc), mockSvc
}

func TestModelHandler_HandleListModels(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupModelHandler(t)
		expected := &llm.ListModelsResponse{Models: []llm.Model{{Name: "m1", OwnedBy: "org"}}}
		mockSvc.On("List", mock.Anything).Return(expected, nil).Once()

		rr := httptest.NewRecorder()
		handler.HandleListModels(rr, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got llm.ListModelsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, *expected, got)
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		handler, mockSvc := setupModelHandler(t)
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		rr := httptest.NewRecorder()
		handler.HandleListModels(rr, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("Failure - Gateway rate limit", func(t *testing.T) {
		handler, mockSvc := setupModelHandler(t)
		mockSvc.On("List", mock.Anything).Return(nil, &llm.StatusError{Code: http.StatusTooManyRequests}).Once()

		rr := httptest.NewRecorder()
		handler.HandleListModels(rr, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Contains(t, rr.Body.String(), llm.RateLimitMessage)
	})
}
