package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"

	apperrors "nova-chat/backend/internal/errors"
	"nova-chat/backend/internal/llm"
)

const (
	keySystemPrompt  = "system_prompt"
	keyMainModel     = "main_model"
	keySearchEnabled = "search_enabled"
)

// Settings holds the dynamic settings used by the relay.
type Settings struct {
	SystemPrompt  string `json:"system_prompt" validate:"required"`
	MainModel     string `json:"main_model" validate:"required"`
	SearchEnabled bool   `json:"search_enabled"`
}

// SettingsService stores Settings as key/value rows in the settings table.
type SettingsService struct {
	db           *sql.DB
	llm          llm.LLMProvider
	defaultModel string
}

// NewSettingsService returns a SettingsService. defaultModel is used when the
// gateway offers no model to pick from.
func NewSettingsService(db *sql.DB, llmProvider llm.LLMProvider, defaultModel string) *SettingsService {
	return &SettingsService{db: db, llm: llmProvider, defaultModel: defaultModel}
}

// InitAndGet returns the stored settings, writing initial ones on first start.
func (s *SettingsService) InitAndGet(ctx context.Context, defaultSystemPrompt string) (*Settings, error) {
	values, err := s.load(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for existing settings: %w", err)
	}
	if len(values) > 0 {
		slog.Info("Found existing settings in database.")
		return s.Get(ctx)
	}

	slog.Info("No settings found in database. Performing initialization...")
	settings := &Settings{
		SystemPrompt:  defaultSystemPrompt,
		MainModel:     s.discoverModel(ctx),
		SearchEnabled: true,
	}
	if err := s.save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save initial settings: %w", err)
	}
	return settings, nil
}

// Get reads the current settings. A missing main model is repaired from the
// gateway's model list and written back.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	values, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings := &Settings{
		SystemPrompt:  values[keySystemPrompt],
		MainModel:     values[keyMainModel],
		SearchEnabled: true,
	}
	if v, ok := values[keySearchEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.SearchEnabled = b
		}
	}

	if settings.MainModel == "" {
		settings.MainModel = s.discoverModel(ctx)
		if settings.MainModel != "" {
			slog.Info("Main model was empty, selected a new one", "model", settings.MainModel)
			if err := s.save(ctx, settings); err != nil {
				return nil, fmt.Errorf("failed to save repaired settings: %w", err)
			}
		}
	}
	return settings, nil
}

// Save validates the main model against the gateway and stores settings.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	available, err := s.llm.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("could not verify models: %w", err)
	}
	names := make([]string, len(available.Models))
	for i, m := range available.Models {
		names[i] = m.Name
	}
	if !slices.Contains(names, settings.MainModel) {
		return fmt.Errorf("%w: main model '%s' is not available", apperrors.ErrValidation, settings.MainModel)
	}
	return s.save(ctx, settings)
}

func (s *SettingsService) discoverModel(ctx context.Context) string {
	models, err := s.llm.ListModels(ctx)
	switch {
	case err != nil:
		slog.Warn("Could not list models during settings initialization", "error", err)
	case len(models.Models) == 0:
		slog.Warn("Gateway has no models, using the configured default")
	default:
		return models.Models[0].Name
	}
	return s.defaultModel
}

func (s *SettingsService) load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (s *SettingsService) save(ctx context.Context, settings *Settings) error {
	values := map[string]string{
		keySystemPrompt:  settings.SystemPrompt,
		keyMainModel:     settings.MainModel,
		keySearchEnabled: strconv.FormatBool(settings.SearchEnabled),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, values[k]); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}
