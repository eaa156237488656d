package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "nova-chat/backend/internal/errors"
	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/observability"
	"nova-chat/backend/internal/repository"
	"nova-chat/backend/internal/stream"
	"nova-chat/backend/internal/transcript"
)

const (
	defaultConversationTitle = "New Chat"
	titleMaxRunes            = 50
	readBufferSize           = 4096
)

// User-facing notification texts.
const (
	msgSendFailed        = "Failed to send message"
	msgResponseFailed    = "Failed to get response"
	msgReadFailed        = "Failed to read response"
	msgSaveFailed        = "Failed to save message"
	msgNoConversation    = "No active conversation"
	msgCreateFailed      = "Failed to create conversation"
	msgClearFailed       = "Failed to clear history"
	msgNewChatStarted    = "Started new chat"
	msgChatCleared       = "Chat cleared"
	defaultRateLimitMsg  = llm.RateLimitMessage
	defaultUsageLimitMsg = llm.UsageLimitMessage
)

// Result describes how a SendMessage call settled. Saved and SaveErr report
// the persistence of the assistant reply separately from the stream outcome.
type Result struct {
	State     model.StreamState
	MessageID string
	Content   string
	Saved     bool
	SaveErr   error
	Err       error
}

type inflight struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// ChatServiceOption configures a ChatService.
type ChatServiceOption func(*ChatService)

func WithLogger(logger *slog.Logger) ChatServiceOption {
	return func(s *ChatService) { s.logger = logger }
}

func WithMetrics(m *observability.StreamingMetrics) ChatServiceOption {
	return func(s *ChatService) { s.metrics = m }
}

// WithStreamOptions passes bounds to the assembler created for every request.
func WithStreamOptions(opts ...stream.Option) ChatServiceOption {
	return func(s *ChatService) { s.streamOpts = append(s.streamOpts, opts...) }
}

// ChatService owns the active conversation and runs the lifecycle of each
// outbound chat request. Only one request is in flight at a time; starting a
// new one cancels and waits for the previous one.
type ChatService struct {
	repo       repository.Repository
	client     llm.ChatClient
	logger     *slog.Logger
	metrics    *observability.StreamingMetrics
	streamOpts []stream.Option

	mu             sync.Mutex
	conversationID string
	state          model.StreamState
	current        *inflight
	transcript     *transcript.Transcript

	obsMu     sync.RWMutex
	observers map[int]model.Observer
	nextObsID int
}

func NewChatService(repo repository.Repository, client llm.ChatClient, opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		repo:       repo,
		client:     client,
		logger:     slog.Default(),
		state:      model.StateIdle,
		transcript: transcript.New(nil),
		observers:  make(map[int]model.Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("module", "chat"))
	return s
}

// Subscribe registers obs for every transcript change, state change and
// notification. The returned function removes it.
func (s *ChatService) Subscribe(obs model.Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *ChatService) emit(ev model.Event) {
	s.obsMu.RLock()
	observers := make([]model.Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.RUnlock()

	for _, o := range observers {
		o.Observe(ev)
	}
}

func (s *ChatService) emitMessages(conversationID string) {
	s.emit(model.Event{
		Type:           model.EventMessages,
		ConversationID: conversationID,
		Messages:       s.transcript.Snapshot(),
	})
}

func (s *ChatService) notify(level model.NotificationLevel, kind model.NotificationKind, message string) {
	s.emit(model.Event{
		Type:           model.EventNotification,
		ConversationID: s.ConversationID(),
		Notification:   &model.Notification{Level: level, Kind: kind, Message: message},
	})
}

func (s *ChatService) setState(conversationID string, st model.StreamState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.emit(model.Event{Type: model.EventState, ConversationID: conversationID, State: st})
}

// State is the state of the latest request.
func (s *ChatService) State() model.StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a snapshot of the transcript.
func (s *ChatService) Messages() []model.Message {
	return s.transcript.Snapshot()
}

func (s *ChatService) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Cancel aborts the in-flight request, if any. It reports whether there was one.
func (s *ChatService) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	s.current.cancel()
	return true
}

// stopInflightLocked cancels the in-flight request and waits for it to
// settle. s.mu is held on entry and on return.
func (s *ChatService) stopInflightLocked() {
	for s.current != nil {
		prev := s.current
		prev.cancel()
		s.mu.Unlock()
		<-prev.done
		s.mu.Lock()
	}
}

// Load restores the most recently updated conversation, or creates one when
// none exists. Failures are logged and leave an empty transcript.
func (s *ChatService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.stopInflightLocked()
	s.mu.Unlock()

	conv, err := s.repo.LoadLatestConversation(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		_, err = s.createConversation(ctx)
		if err != nil {
			s.logger.Error("Error creating conversation", "error", err)
		}
		return err
	}
	if err != nil {
		s.logger.Error("Error loading conversation", "error", err)
		return fmt.Errorf("could not load latest conversation: %w", err)
	}

	s.mu.Lock()
	s.conversationID = conv.ID
	s.state = model.StateIdle
	s.mu.Unlock()

	msgs, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		s.logger.Error("Error loading messages", "conversation_id", conv.ID, "error", err)
		s.transcript.Reset(nil)
		s.emitMessages(conv.ID)
		return fmt.Errorf("could not load messages: %w", err)
	}
	s.transcript.Reset(msgs)
	s.logger.Info("Loaded conversation", "conversation_id", conv.ID, "messages", len(msgs))
	s.emitMessages(conv.ID)
	return nil
}

func (s *ChatService) createConversation(ctx context.Context) (*model.Conversation, error) {
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     defaultConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("could not create conversation: %w", err)
	}

	s.mu.Lock()
	s.conversationID = conv.ID
	s.state = model.StateIdle
	s.mu.Unlock()
	s.transcript.Reset(nil)
	s.emitMessages(conv.ID)
	return conv, nil
}

// NewChat starts a fresh conversation and clears the transcript.
func (s *ChatService) NewChat(ctx context.Context) (*model.Conversation, error) {
	s.mu.Lock()
	s.stopInflightLocked()
	s.mu.Unlock()

	conv, err := s.createConversation(ctx)
	if err != nil {
		s.logger.Error("Error creating conversation", "error", err)
		s.notify(model.LevelError, model.KindInfo, msgCreateFailed)
		return nil, err
	}
	s.notify(model.LevelSuccess, model.KindInfo, msgNewChatStarted)
	return conv, nil
}

// ClearHistory deletes the active conversation and starts a new one.
func (s *ChatService) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	s.stopInflightLocked()
	convID := s.conversationID
	s.mu.Unlock()

	if convID == "" {
		return nil
	}

	if err := s.repo.DeleteConversation(ctx, convID); err != nil {
		s.logger.Error("Error clearing history", "conversation_id", convID, "error", err)
		s.notify(model.LevelError, model.KindInfo, msgClearFailed)
		return fmt.Errorf("could not delete conversation: %w", err)
	}

	if _, err := s.createConversation(ctx); err != nil {
		s.logger.Error("Error clearing history", "error", err)
		s.mu.Lock()
		s.conversationID = ""
		s.mu.Unlock()
		s.transcript.Reset(nil)
		s.emitMessages("")
		s.notify(model.LevelError, model.KindInfo, msgClearFailed)
		return err
	}
	s.notify(model.LevelSuccess, model.KindInfo, msgChatCleared)
	return nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *ChatService) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	return s.repo.ListConversations(ctx)
}

// GetConversation retrieves a conversation's metadata and all its messages.
func (s *ChatService) GetConversation(ctx context.Context, conversationID string) (*model.FullConversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullConversation{Conversation: *conv, Messages: messages}, nil
}

// UpdateConversationTitle handles a manual rename.
func (s *ChatService) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty: %w", apperrors.ErrValidation)
	}
	err := s.repo.UpdateConversationTitle(ctx, conversationID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("conversation %s: %w", conversationID, apperrors.ErrNotFound)
	}
	return err
}

// DeriveTitle is the first 50 characters of the user's first message, with an
// ellipsis when it was truncated.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// SendMessage submits content and blocks until the request settles. ctx
// bounds the whole request; Cancel or a newer SendMessage cancels it too.
func (s *ChatService) SendMessage(ctx context.Context, content string) Result {
	if strings.TrimSpace(content) == "" {
		return Result{State: model.StateFailed, Err: fmt.Errorf("message content is empty: %w", apperrors.ErrValidation)}
	}

	s.mu.Lock()
	s.stopInflightLocked()

	if s.conversationID == "" {
		s.mu.Unlock()
		if _, err := s.createConversation(ctx); err != nil {
			s.logger.Error("Error sending message", "error", err)
			s.notify(model.LevelError, model.KindInfo, msgNoConversation)
			return Result{State: model.StateFailed, Err: err}
		}
		return s.SendMessage(ctx, content)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	fl := &inflight{cancel: cancel, done: make(chan struct{})}
	s.current = fl
	convID := s.conversationID

	history := s.transcript.Snapshot()
	userMsg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Role:           model.RoleUser,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	assistantID := uuid.NewString()
	appendErr := s.transcript.Append(userMsg)
	if appendErr == nil {
		appendErr = s.transcript.BeginAssistant(assistantID)
	}
	s.state = model.StateSending
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.current == fl {
			s.current = nil
		}
		s.mu.Unlock()
		cancel()
		close(fl.done)
	}()

	if appendErr != nil {
		s.logger.Error("Transcript rejected new message", "error", appendErr)
		s.setState(convID, model.StateFailed)
		s.notify(model.LevelError, model.KindTransport, msgSendFailed)
		return Result{State: model.StateFailed, Err: appendErr}
	}

	started := time.Now()
	s.metrics.StreamStarted()
	s.emitMessages(convID)
	s.emit(model.Event{Type: model.EventState, ConversationID: convID, State: model.StateSending})

	r := &request{
		svc:           s,
		ctx:           reqCtx,
		saveCtx:       context.WithoutCancel(ctx),
		convID:        convID,
		assistantID:   assistantID,
		userContent:   content,
		firstExchange: len(history) == 0,
		started:       started,
	}

	if err := s.repo.AppendMessage(reqCtx, convID, &userMsg); err != nil {
		s.logger.Warn("Error saving user message", "conversation_id", convID, "error", err)
	}

	return r.run(outboundMessages(history, userMsg))
}

// outboundMessages builds the request body from the prior transcript plus
// the new user turn. Messages without content carry nothing for the model.
func outboundMessages(history []model.Message, userMsg model.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return append(msgs, llm.Message{Role: string(userMsg.Role), Content: userMsg.Content})
}

// request carries the per-request state of one SendMessage call.
type request struct {
	svc           *ChatService
	ctx           context.Context
	saveCtx       context.Context
	convID        string
	assistantID   string
	userContent   string
	firstExchange bool
	started       time.Time
	fragments     int
}

func (r *request) run(msgs []llm.Message) Result {
	s := r.svc

	body, err := s.client.Open(r.ctx, msgs)
	if err != nil {
		return r.settleError(err)
	}
	defer body.Close()

	if r.ctx.Err() != nil {
		return r.cancelled()
	}
	s.setState(r.convID, model.StateStreaming)

	asm := stream.NewAssembler(s.streamOpts...)
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if r.ctx.Err() != nil {
			return r.cancelled()
		}
		if n > 0 {
			updates, feedErr := asm.Feed(buf[:n])
			r.apply(updates)
			if r.ctx.Err() != nil {
				return r.cancelled()
			}
			if feedErr != nil {
				return r.failed(feedErr)
			}
			if asm.Done() {
				break
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return r.settleError(fmt.Errorf("%w: %v", apperrors.ErrUpstream, readErr))
		}
	}

	updates, err := asm.Finish()
	r.apply(updates)
	if r.ctx.Err() != nil {
		return r.cancelled()
	}
	if err != nil {
		s.logger.Warn("Dropped incomplete frame at end of stream", "conversation_id", r.convID, "error", err)
	}
	return r.completed()
}

func (r *request) apply(updates []stream.Update) {
	s := r.svc
	for _, u := range updates {
		if r.ctx.Err() != nil {
			return
		}
		if err := s.transcript.SetContent(r.assistantID, u.Text); err != nil {
			s.logger.Error("Could not apply fragment", "message_id", r.assistantID, "error", err)
			continue
		}
		if r.fragments == 0 {
			s.metrics.FirstFragment(r.started)
		}
		r.fragments++
		s.metrics.FragmentApplied()
		s.emitMessages(r.convID)
	}
}

func (r *request) settleError(err error) Result {
	if errors.Is(err, context.Canceled) || r.ctx.Err() != nil {
		return r.cancelled()
	}
	return r.failed(err)
}

// cancelled keeps whatever content already streamed in. A placeholder that
// never received a fragment is removed.
func (r *request) cancelled() Result {
	s := r.svc
	s.transcript.RemoveIfEmpty(r.assistantID)
	s.logger.Info("Request cancelled", "conversation_id", r.convID, "fragments", r.fragments)
	s.metrics.StreamSettled(string(model.StateCancelled), "")
	s.emitMessages(r.convID)
	s.setState(r.convID, model.StateCancelled)
	return Result{State: model.StateCancelled, MessageID: r.assistantID, Content: r.content()}
}

// content is the assistant message's current text, empty once removed.
func (r *request) content() string {
	for _, m := range r.svc.transcript.Snapshot() {
		if m.ID == r.assistantID {
			return m.Content
		}
	}
	return ""
}

func (r *request) failed(err error) Result {
	s := r.svc
	s.transcript.RemoveIfEmpty(r.assistantID)

	kind, text := classifyFailure(err)
	s.logger.Error("Error sending message", "conversation_id", r.convID, "kind", kind, "error", err)
	s.metrics.StreamSettled(string(model.StateFailed), string(kind))
	s.emitMessages(r.convID)
	s.setState(r.convID, model.StateFailed)
	s.notify(model.LevelError, kind, text)

	return Result{State: model.StateFailed, MessageID: r.assistantID, Content: r.content(), Err: err}
}

func (r *request) completed() Result {
	s := r.svc
	msg, err := s.transcript.Finish(r.assistantID)
	if err != nil {
		s.logger.Warn("Could not settle completed message", "message_id", r.assistantID, "error", err)
	}
	if msg.Content == "" {
		s.transcript.RemoveIfEmpty(r.assistantID)
	}

	res := Result{State: model.StateCompleted, MessageID: r.assistantID, Content: msg.Content}
	if msg.Content != "" {
		res.SaveErr = r.persist(msg)
		res.Saved = res.SaveErr == nil
	}

	s.metrics.StreamSettled(string(model.StateCompleted), "")
	s.emitMessages(r.convID)
	s.setState(r.convID, model.StateCompleted)
	if res.SaveErr != nil {
		s.notify(model.LevelError, model.KindSaveFailed, msgSaveFailed)
	}
	return res
}

// persist stores the assistant reply and, for the first exchange, the title.
// saveCtx is detached from request cancellation.
func (r *request) persist(msg model.Message) error {
	s := r.svc
	msg.ConversationID = r.convID
	if err := s.repo.AppendMessage(r.saveCtx, r.convID, &msg); err != nil {
		s.logger.Error("Error saving assistant message", "conversation_id", r.convID, "error", err)
		return fmt.Errorf("could not save assistant message: %w", err)
	}
	if r.firstExchange {
		if err := s.repo.UpdateConversationTitle(r.saveCtx, r.convID, DeriveTitle(r.userContent)); err != nil {
			s.logger.Error("Error saving conversation title", "conversation_id", r.convID, "error", err)
			return fmt.Errorf("could not save conversation title: %w", err)
		}
	}
	return nil
}

// classifyFailure maps an error to its notification kind and user-facing text.
// A message from the endpoint's error body wins over the defaults.
func classifyFailure(err error) (model.NotificationKind, string) {
	var se *llm.StatusError
	hasStatus := errors.As(err, &se)
	pick := func(def string) string {
		if hasStatus && se.Message != "" {
			return se.Message
		}
		return def
	}

	switch {
	case errors.Is(err, apperrors.ErrRateLimited):
		return model.KindRateLimit, pick(defaultRateLimitMsg)
	case errors.Is(err, apperrors.ErrUsageLimit):
		return model.KindUsageLimit, pick(defaultUsageLimitMsg)
	case errors.Is(err, stream.ErrMalformedFrame):
		return model.KindStream, msgReadFailed
	case hasStatus:
		return model.KindTransport, pick(msgResponseFailed)
	default:
		return model.KindTransport, msgSendFailed
	}
}
