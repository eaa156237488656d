package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-chat/backend/internal/llm"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.AppPort)
		assert.Equal(t, StorageSQLite, cfg.StorageBackend)
		assert.Equal(t, 16, cfg.StreamMaxStalledChunks)
		assert.Equal(t, 64*1024, cfg.StreamMaxPendingBytes)
		assert.Equal(t, llm.DefaultSystemPrompt, cfg.InitialSystemPrompt)
		assert.Zero(t, cfg.RelayRateLimit)
		assert.Equal(t, "http://localhost:8000/api/v1/chat", cfg.ResolvedChatEndpoint())
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("APP_PORT", "9100")
		t.Setenv("STORAGE_BACKEND", "bolt")
		t.Setenv("RELAY_RATE_LIMIT", "2.5")
		t.Setenv("STREAM_MAX_STALLED_CHUNKS", "4")
		t.Setenv("CHAT_ENDPOINT", "https://example.test/chat")
		t.Setenv("LOG_FORMAT", "text")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 9100, cfg.AppPort)
		assert.Equal(t, StorageBolt, cfg.StorageBackend)
		assert.Equal(t, 2.5, cfg.RelayRateLimit)
		assert.Equal(t, 4, cfg.StreamMaxStalledChunks)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "https://example.test/chat", cfg.ResolvedChatEndpoint())
	})

	t.Run("Invalid values", func(t *testing.T) {
		testCases := []struct {
			name  string
			key   string
			value string
		}{
			{"Unknown backend", "STORAGE_BACKEND", "postgres"},
			{"Zero stall bound", "STREAM_MAX_STALLED_CHUNKS", "0"},
			{"Negative pending bytes", "STREAM_MAX_PENDING_BYTES", "-1"},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv(tc.key, tc.value)
				_, err := LoadConfig()
				assert.ErrorContains(t, err, tc.key)
			})
		}
	})
}
