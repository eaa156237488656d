package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "nova-chat/backend/internal/errors"
	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/observability"
)

// SettingsReader is the part of SettingsService the relay depends on.
type SettingsReader interface {
	Get(ctx context.Context) (*Settings, error)
}

// RelayOption configures a RelayService.
type RelayOption func(*RelayService)

// WithRateLimit allows perSecond requests with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) RelayOption {
	return func(s *RelayService) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(s *RelayService) { s.logger = logger }
}

func WithRelayMetrics(m *observability.StreamingMetrics) RelayOption {
	return func(s *RelayService) { s.metrics = m }
}

// WithClock overrides the time used for the date in the system prompt.
func WithClock(now func() time.Time) RelayOption {
	return func(s *RelayService) { s.now = now }
}

// RelayService forwards a conversation to the model gateway with the Nova
// system prompt, optionally augmented with search results.
type RelayService struct {
	provider     llm.LLMProvider
	search       llm.SearchClient
	settings     SettingsReader
	defaultModel string

	limiter *rate.Limiter
	metrics *observability.StreamingMetrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewRelayService(provider llm.LLMProvider, search llm.SearchClient, settings SettingsReader, defaultModel string, opts ...RelayOption) *RelayService {
	s := &RelayService{
		provider:     provider,
		search:       search,
		settings:     settings,
		defaultModel: defaultModel,
		limiter:      rate.NewLimiter(rate.Inf, 0),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("module", "relay"))
	return s
}

// RelayStream yields the chunks of one upstream completion.
type RelayStream struct {
	pending *llm.StreamChunk
	ch      <-chan llm.StreamChunk
	errCh   <-chan error
	err     error
}

// Next returns the next chunk, or false once the upstream stream has ended.
func (r *RelayStream) Next() (llm.StreamChunk, bool) {
	if r.pending != nil {
		c := *r.pending
		r.pending = nil
		return c, true
	}
	if r.ch == nil {
		return llm.StreamChunk{}, false
	}
	c, ok := <-r.ch
	return c, ok
}

// Err waits for the upstream call to return and reports its error. Call it
// after Next has returned false.
func (r *RelayStream) Err() error {
	if r.errCh != nil {
		r.err = <-r.errCh
		r.errCh = nil
	}
	return r.err
}

// Start checks the rate limit, builds the upstream request and waits for the
// first chunk. Failures that happen before any chunk arrives are returned
// here so the caller can still pick the response status. Cancelling ctx stops
// the upstream stream.
func (s *RelayService) Start(ctx context.Context, messages []llm.Message) (*RelayStream, error) {
	if !s.limiter.Allow() {
		s.logger.Warn("Relay rate limit exceeded")
		return nil, &llm.StatusError{Code: http.StatusTooManyRequests, Message: llm.RateLimitMessage}
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required: %w", apperrors.ErrValidation)
	}

	settings := s.currentSettings(ctx)

	var found *llm.SearchResult
	if query := lastUserMessage(messages); settings.SearchEnabled && llm.NeedsCurrentInfo(query) {
		found = s.runSearch(ctx, query)
	}

	outbound := make([]llm.Message, 0, len(messages)+1)
	outbound = append(outbound, llm.Message{
		Role:    string(model.RoleSystem),
		Content: llm.BuildSystemPrompt(settings.SystemPrompt, s.now(), found),
	})
	outbound = append(outbound, messages...)

	req := &llm.GenerateRequest{Model: settings.MainModel, Messages: outbound}
	s.logger.Info("Relaying chat request", "model", req.Model, "messages", len(messages), "search", found != nil)

	ch := make(chan llm.StreamChunk)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.provider.GenerateStream(ctx, req, ch)
	}()

	first, ok := <-ch
	if !ok {
		err := <-errCh
		if err != nil {
			s.logger.Error("Upstream request failed", "error", err)
			return nil, err
		}
		return &RelayStream{}, nil
	}
	return &RelayStream{pending: &first, ch: ch, errCh: errCh}, nil
}

func (s *RelayService) currentSettings(ctx context.Context) Settings {
	settings := Settings{SearchEnabled: true}
	if s.settings != nil {
		stored, err := s.settings.Get(ctx)
		if err != nil {
			s.logger.Warn("Could not load settings, using defaults", "error", err)
		} else {
			settings = *stored
		}
	}
	if settings.MainModel == "" {
		settings.MainModel = s.defaultModel
	}
	return settings
}

func (s *RelayService) runSearch(ctx context.Context, query string) *llm.SearchResult {
	if s.search == nil {
		return nil
	}
	s.logger.Debug("Query needs current info, searching")
	res, err := s.search.Search(ctx, query)
	switch {
	case err != nil:
		s.logger.Warn("Search failed, continuing without results", "error", err)
		s.metrics.SearchCompleted("error")
		return nil
	case res == nil:
		s.metrics.SearchCompleted("miss")
		return nil
	}
	s.metrics.SearchCompleted("hit")
	return res
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
