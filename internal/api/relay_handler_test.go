package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nova-chat/backend/internal/api"
	app_errors "nova-chat/backend/internal/errors"
	"nova-chat/backend/internal/llm"
	llm_mocks "nova-chat/backend/internal/llm/mocks"
	"nova-chat/backend/internal/observability"
	"nova-chat/backend/internal/service"
	"nova-chat/backend/internal/stream"
)

func setupRelayHandler(t *testing.T, opts ...service.RelayOption) (*api.RelayHandler, *llm_mocks.MockLLMProvider, *observability.StreamingMetrics) {
	provider := llm_mocks.NewMockLLMProvider(t)
	metrics := observability.NewStreamingMetrics(prometheus.NewRegistry())
	relay := service.NewRelayService(provider, nil, nil, "m1", opts...)
	return api.NewRelayHandler(relay, metrics), provider, metrics
}

func chunksThen(err error, texts ...string) func(context.Context, *llm.GenerateRequest, chan<- llm.StreamChunk) error {
	return func(ctx context.Context, _ *llm.GenerateRequest, ch chan<- llm.StreamChunk) error {
		defer close(ch)
		for _, text := range texts {
			select {
			case ch <- llm.StreamChunk{Choices: []llm.ChunkChoice{{Delta: llm.ChunkDelta{Content: text}}}}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return err
	}
}

const relayBody = `{"messages":[{"role":"user","content":"Hi"}]}`

func TestRelayHandler_HandleChat(t *testing.T) {
	t.Run("Success - Streams chunks and the end marker", func(t *testing.T) {
		handler, provider, metrics := setupRelayHandler(t)
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).Return(chunksThen(nil, "A", "B")).Once()

		rr := httptest.NewRecorder()
		handler.HandleChat(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(relayBody)))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

		events := readEvents(t, rr.Body.String())
		require.Len(t, events, 3)
		assert.Equal(t, "[DONE]", events[2].Data)

		// The relay's output is exactly what the stream assembler consumes.
		asm := stream.NewAssembler()
		_, err := asm.Feed(rr.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, "AB", asm.Text())
		assert.True(t, asm.Done())

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RelayRequestsTotal.WithLabelValues("200")))
	})

	t.Run("Failure - Upstream errors map to status codes", func(t *testing.T) {
		testCases := []struct {
			name         string
			upstreamErr  error
			expectedCode int
			expectedBody string
		}{
			{"Rate limited", &llm.StatusError{Code: 429, Message: llm.RateLimitMessage}, http.StatusTooManyRequests, llm.RateLimitMessage},
			{"Usage limit", &llm.StatusError{Code: 402, Message: llm.UsageLimitMessage}, http.StatusPaymentRequired, llm.UsageLimitMessage},
			{"Other status", &llm.StatusError{Code: 503, Message: "unavailable"}, http.StatusInternalServerError, "AI gateway error: 503"},
			{"Network failure", app_errors.ErrUpstream, http.StatusInternalServerError, "AI gateway error"},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				handler, provider, _ := setupRelayHandler(t)
				provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).Return(tc.upstreamErr).Once()

				rr := httptest.NewRecorder()
				handler.HandleChat(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(relayBody)))

				assert.Equal(t, tc.expectedCode, rr.Code)
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Body.String(), tc.expectedBody)
			})
		}
	})

	t.Run("Failure - Error after the stream started", func(t *testing.T) {
		handler, provider, _ := setupRelayHandler(t)
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
			Return(chunksThen(app_errors.ErrUpstream, "par")).Once()

		rr := httptest.NewRecorder()
		handler.HandleChat(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(relayBody)))

		require.Equal(t, http.StatusOK, rr.Code)
		events := readEvents(t, rr.Body.String())
		require.Len(t, events, 2)
		assert.Equal(t, "error", events[1].Type)
		assert.NotContains(t, rr.Body.String(), "[DONE]")
	})

	t.Run("Failure - Local rate limit", func(t *testing.T) {
		handler, provider, metrics := setupRelayHandler(t, service.WithRateLimit(0.001, 1))
		provider.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).Return(chunksThen(nil, "x")).Once()

		first := httptest.NewRecorder()
		handler.HandleChat(first, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(relayBody)))
		require.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		handler.HandleChat(second, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(relayBody)))
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.JSONEq(t, `{"error":"`+llm.RateLimitMessage+`"}`, second.Body.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RelayRequestsTotal.WithLabelValues("429")))
	})

	t.Run("Failure - Invalid body", func(t *testing.T) {
		handler, _, _ := setupRelayHandler(t)

		rr := httptest.NewRecorder()
		handler.HandleChat(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"messages":`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = httptest.NewRecorder()
		handler.HandleChat(rr, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"messages":[]}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Field 'Messages' failed on the 'min' tag")
	})
}
