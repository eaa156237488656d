package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nova-chat/backend/internal/errors"
)

func TestChatClient_Open(t *testing.T) {
	t.Run("Success streams the body", func(t *testing.T) {
		var captured ChatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: [DONE]\n")
		}))
		defer server.Close()

		client := NewChatClient(server.URL, "secret")
		body, err := client.Open(context.Background(), []Message{{Role: "user", Content: "hi"}})
		require.NoError(t, err)
		defer body.Close()

		raw, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "data: [DONE]\n", string(raw))
		assert.Equal(t, []Message{{Role: "user", Content: "hi"}}, captured.Messages)
	})

	testCases := []struct {
		name        string
		status      int
		body        string
		expectedErr error
		expectedMsg string
	}{
		{
			name:        "Rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"error":"Rate limit exceeded. Please try again in a moment."}`,
			expectedErr: apperrors.ErrRateLimited,
			expectedMsg: "Rate limit exceeded. Please try again in a moment.",
		},
		{
			name:        "Usage limit",
			status:      http.StatusPaymentRequired,
			body:        `{"error":"Usage limit reached. Please add credits to continue."}`,
			expectedErr: apperrors.ErrUsageLimit,
			expectedMsg: "Usage limit reached. Please add credits to continue.",
		},
		{
			name:        "Server error without JSON body",
			status:      http.StatusInternalServerError,
			body:        "boom",
			expectedErr: apperrors.ErrUpstream,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer server.Close()

			body, err := NewChatClient(server.URL, "").Open(context.Background(), nil)
			require.Error(t, err)
			assert.Nil(t, body)
			assert.ErrorIs(t, err, tc.expectedErr)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.status, se.Code)
			assert.Equal(t, tc.expectedMsg, se.Message)
		})
	}

	t.Run("Transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewChatClient(url, "").Open(context.Background(), nil)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("Cancelled context passes through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewChatClient(server.URL, "").Open(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, apperrors.ErrUpstream)
	})
}
