package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-chat/backend/internal/config"
	"nova-chat/backend/internal/model"
)

// newGateway fakes an OpenAI-compatible gateway that offers one model and
// streams "Hello" in two chunks.
func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"object":"list","data":[{"id":"m1","object":"model","owned_by":"org"}]}`)
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, gatewayURL, chatEndpoint string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DatabasePath:           filepath.Join(dir, "nova.db"),
		StorageBackend:         config.StorageSQLite,
		BoltPath:               filepath.Join(dir, "nova.bolt"),
		ChatEndpoint:           chatEndpoint,
		GatewayURL:             gatewayURL,
		GatewayModel:           "fallback",
		StreamMaxStalledChunks: 16,
		StreamMaxPendingBytes:  64 * 1024,
		InitialSystemPrompt:    "You are a test assistant.",
		LogLevel:               "DEBUG",
	}
}

func TestNewApp(t *testing.T) {
	gateway := newGateway(t)
	cfg := testConfig(t, gateway.URL, "")

	app, err := NewApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	defer app.Close()

	assert.NotNil(t, app.DB)
	assert.NotNil(t, app.Server)
	assert.NotEmpty(t, app.Chat.ConversationID())
	assert.Equal(t, model.StateIdle, app.Chat.State())
}

func TestNewApp_BoltBackend(t *testing.T) {
	gateway := newGateway(t)
	cfg := testConfig(t, gateway.URL, "")
	cfg.StorageBackend = config.StorageBolt

	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotEmpty(t, app.Chat.ConversationID())
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	gateway := newGateway(t)
	cfg := testConfig(t, gateway.URL, "")
	cfg.StorageBackend = config.StorageRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(cfg)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

// The chat service streams through this server's own relay, which streams
// from the fake gateway.
func TestApp_SendMessageRoundTrip(t *testing.T) {
	gateway := newGateway(t)

	var handler atomic.Value
	self := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Load().(http.Handler).ServeHTTP(w, r)
	}))
	defer self.Close()

	cfg := testConfig(t, gateway.URL, self.URL+"/api/v1/chat")

	app, err := NewApp(cfg)
	require.NoError(t, err)
	handler.Store(app.Server.Handler)

	result := app.Chat.SendMessage(context.Background(), "Hello there")
	require.NoError(t, result.Err)
	assert.Equal(t, model.StateCompleted, result.State)
	assert.Equal(t, "Hello", result.Content)
	assert.True(t, result.Saved)

	conversationID := app.Chat.ConversationID()
	app.Close()

	// A restart restores the saved conversation.
	restarted, err := NewApp(cfg)
	require.NoError(t, err)
	defer restarted.Close()

	assert.Equal(t, conversationID, restarted.Chat.ConversationID())
	msgs := restarted.Chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello there", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "ERROR", parseLogLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLogLevel("").String())
}
