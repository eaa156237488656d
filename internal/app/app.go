package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"nova-chat/backend/internal/api"
	"nova-chat/backend/internal/config"
	"nova-chat/backend/internal/database"
	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/observability"
	"nova-chat/backend/internal/repository"
	"nova-chat/backend/internal/service"
	"nova-chat/backend/internal/stream"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14

	shutdownTimeout = 15 * time.Second
	startupTimeout  = 30 * time.Second
)

// App holds the wired components of a running server.
type App struct {
	DB     *sql.DB
	Server *http.Server
	Chat   *service.ChatService
	Events *api.EventBroker

	closers []io.Closer
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	logCloser := setupLogger(cfg)
	if logCloser != nil {
		defer func() { _ = logCloser.Close() }()
	}

	logConfigSource()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", app.Server.Addr)
		serveErr <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
		slog.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.Chat.Cancel()
	if err := app.Events.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Event stream shutdown incomplete", "error", err)
	}
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		return 1
	}
	return 0
}

// NewApp opens storage, restores the active conversation and builds the HTTP
// server. It does not start listening.
func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.")

	app := &App{DB: db}

	repo, err := app.openRepository(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewStreamingMetrics(registry)

	provider := llm.NewOpenAIProvider(cfg.GatewayURL, cfg.GatewayAPIKey, slog.Default())
	settingsService := service.NewSettingsService(db, provider, cfg.GatewayModel)

	appSettings, err := settingsService.InitAndGet(ctx, cfg.InitialSystemPrompt)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize application settings: %w", err)
	}
	slog.Info("Loaded application settings", "main_model", appSettings.MainModel, "search_enabled", appSettings.SearchEnabled)

	search := llm.NewSearchClient(cfg.SearchURL, cfg.SearchAPIKey, cfg.SearchModel, slog.Default())
	if cfg.SearchAPIKey == "" {
		slog.Info("SEARCH_API_KEY not set, search augmentation disabled")
	}

	relayService := service.NewRelayService(provider, search, settingsService, cfg.GatewayModel,
		service.WithRateLimit(cfg.RelayRateLimit, cfg.RelayBurst),
		service.WithRelayMetrics(metrics),
	)

	chatClient := llm.NewChatClient(cfg.ResolvedChatEndpoint(), cfg.ChatAPIKey)
	chatService := service.NewChatService(repo, chatClient,
		service.WithMetrics(metrics),
		service.WithStreamOptions(
			stream.WithMaxStalledChunks(cfg.StreamMaxStalledChunks),
			stream.WithMaxPendingBytes(cfg.StreamMaxPendingBytes),
		),
	)
	if err := chatService.Load(ctx); err != nil {
		// The service keeps an empty transcript; new messages still work.
		slog.Warn("Starting without a restored conversation", "error", err)
	}
	modelService := service.NewModelService(provider)

	app.Chat = chatService
	app.Events = api.NewEventBroker(chatService)

	router := api.NewRouter(api.Handlers{
		Chat:   api.NewChatHandler(chatService, settingsService),
		Models: api.NewModelHandler(modelService),
		Relay:  api.NewRelayHandler(relayService, metrics),
		Events: app.Events,
	}, registry)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return app, nil
}

// openRepository returns the conversation store selected by STORAGE_BACKEND.
func (a *App) openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	switch cfg.StorageBackend {
	case config.StorageBolt:
		repo, err := repository.NewBoltRepository(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		a.closers = append(a.closers, repo)
		slog.Info("Using BoltDB conversation store", "path", cfg.BoltPath)
		return repo, nil
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb)
		slog.Info("Using Redis conversation store", "addr", cfg.RedisAddr)
		return repository.NewRedisRepository(rdb), nil
	default:
		slog.Info("Using SQLite conversation store")
		return repository.NewSQLiteRepository(a.DB), nil
	}
}

// Close releases storage in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}
	a.closers = nil
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

// setupLogger installs the default slog logger. When LOG_FILE is set, logs go
// to a rotating file and the returned closer must be closed on exit.
func setupLogger(cfg *config.Config) io.Closer {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var out io.Writer = os.Stdout
	var closer io.Closer
	if path := strings.TrimSpace(cfg.LogFile); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			slog.Warn("Cannot create log directory, logging to stdout", "path", path, "error", err)
		} else {
			writer := &lumberjack.Logger{
				Filename:   path,
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
				MaxAge:     maxLogAgeDays,
				Compress:   true,
			}
			out, closer = writer, writer
		}
	}

	slog.SetDefault(slog.New(newHandler(cfg.LogFormat, out, opts)))
	return closer
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
