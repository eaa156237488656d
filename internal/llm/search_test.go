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
)

func TestNeedsCurrentInfo(t *testing.T) {
	testCases := []struct {
		message  string
		expected bool
	}{
		{"What is the weather like?", true},
		{"Latest NEWS please", true},
		{"Who is the CEO of Acme", true},
		{"aaj ka score kya hai", true},
		{"Write me a haiku about cats", false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.expected, NeedsCurrentInfo(tc.message))
		})
	}
}

func TestSearchClient_Search(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer pplx", r.Header.Get("Authorization"))
			var req struct {
				Model    string    `json:"model"`
				Messages []Message `json:"messages"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, DefaultSearchModel, req.Model)
			if assert.Len(t, req.Messages, 2) {
				assert.Equal(t, "today's news", req.Messages[1].Content)
			}

			_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"Things happened."}}],"citations":["https://a.example","https://b.example"]}`)
		}))
		defer server.Close()

		client := NewSearchClient(server.URL, "pplx", "", nil)
		res, err := client.Search(context.Background(), "today's news")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "Things happened.", res.Content)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, res.Citations)
	})

	t.Run("Missing citations become empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"x"}}]}`)
		}))
		defer server.Close()

		res, err := NewSearchClient(server.URL, "k", "", nil).Search(context.Background(), "q")
		require.NoError(t, err)
		assert.Empty(t, res.Citations)
		assert.NotNil(t, res.Citations)
	})

	t.Run("Skipped without API key", func(t *testing.T) {
		res, err := NewSearchClient("http://127.0.0.1:0", "", "", nil).Search(context.Background(), "q")
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("Provider failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		res, err := NewSearchClient(server.URL, "k", "", nil).Search(context.Background(), "q")
		assert.Error(t, err)
		assert.Nil(t, res)
	})
}
