package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"nova-chat/backend/internal/llm"
)

// Storage backends for conversations. Settings always live in SQLite.
const (
	StorageSQLite = "sqlite"
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
)

type Config struct {
	AppPort        int    `mapstructure:"APP_PORT"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	BoltPath       string `mapstructure:"BOLT_PATH"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`

	// ChatEndpoint is where the chat service sends conversations. Empty
	// means this server's own relay.
	ChatEndpoint string `mapstructure:"CHAT_ENDPOINT"`
	ChatAPIKey   string `mapstructure:"CHAT_API_KEY"`

	GatewayURL    string `mapstructure:"GATEWAY_URL"`
	GatewayAPIKey string `mapstructure:"GATEWAY_API_KEY"`
	GatewayModel  string `mapstructure:"GATEWAY_MODEL"`

	SearchURL    string `mapstructure:"SEARCH_URL"`
	SearchAPIKey string `mapstructure:"SEARCH_API_KEY"`
	SearchModel  string `mapstructure:"SEARCH_MODEL"`

	RelayRateLimit float64 `mapstructure:"RELAY_RATE_LIMIT"`
	RelayBurst     int     `mapstructure:"RELAY_BURST"`

	StreamMaxStalledChunks int `mapstructure:"STREAM_MAX_STALLED_CHUNKS"`
	StreamMaxPendingBytes  int `mapstructure:"STREAM_MAX_PENDING_BYTES"`

	InitialSystemPrompt string `mapstructure:"INITIAL_SYSTEM_PROMPT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_FILE"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/nova.db")
	viper.SetDefault("STORAGE_BACKEND", StorageSQLite)
	viper.SetDefault("BOLT_PATH", "/data/nova.bolt")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("CHAT_ENDPOINT", "")
	viper.SetDefault("CHAT_API_KEY", "")
	viper.SetDefault("GATEWAY_URL", "https://ai.gateway.lovable.dev/v1")
	viper.SetDefault("GATEWAY_API_KEY", "")
	viper.SetDefault("GATEWAY_MODEL", "google/gemini-2.5-flash")
	viper.SetDefault("SEARCH_URL", "")
	viper.SetDefault("SEARCH_API_KEY", "")
	viper.SetDefault("SEARCH_MODEL", "sonar")
	viper.SetDefault("RELAY_RATE_LIMIT", 0)
	viper.SetDefault("RELAY_BURST", 1)
	viper.SetDefault("STREAM_MAX_STALLED_CHUNKS", 16)
	viper.SetDefault("STREAM_MAX_PENDING_BYTES", 64*1024)
	viper.SetDefault("INITIAL_SYSTEM_PROMPT", llm.DefaultSystemPrompt)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_FILE", "")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageSQLite, StorageBolt, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StreamMaxStalledChunks < 1 {
		return fmt.Errorf("STREAM_MAX_STALLED_CHUNKS must be positive, got %d", c.StreamMaxStalledChunks)
	}
	if c.StreamMaxPendingBytes < 1 {
		return fmt.Errorf("STREAM_MAX_PENDING_BYTES must be positive, got %d", c.StreamMaxPendingBytes)
	}
	return nil
}

// ResolvedChatEndpoint returns the endpoint the chat service streams from.
func (c *Config) ResolvedChatEndpoint() string {
	if c.ChatEndpoint != "" {
		return c.ChatEndpoint
	}
	return fmt.Sprintf("http://localhost:%d/api/v1/chat", c.AppPort)
}
