package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"nova-chat/backend/internal/interfaces"
	"nova-chat/backend/internal/model"
	"nova-chat/backend/internal/service"
)

// ChatHandler serves the active conversation, the conversation archive and settings.
type ChatHandler struct {
	chat     interfaces.ChatService
	settings interfaces.SettingsService
}

func NewChatHandler(chatSvc interfaces.ChatService, settingsSvc interfaces.SettingsService) *ChatHandler {
	return &ChatHandler{chat: chatSvc, settings: settingsSvc}
}

// GetSettings godoc
// @Summary      Get settings
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  service.Settings
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/settings [get]
func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Validates the main model against the gateway before saving.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings  body      service.Settings  true  "New settings"
// @Success      200       {object}  StatusResponse
// @Failure      400       {object}  ErrorResponse
// @Router       /v1/settings [post]
func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.settings.Save(r.Context(), &req); err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Settings updated", "main_model", req.MainModel, "search_enabled", req.SearchEnabled)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetConversation godoc
// @Summary      Active conversation
// @Description  Returns the id, request state and transcript of the active conversation.
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  ConversationStateResponse
// @Router       /v1/conversation [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, ConversationStateResponse{
		ConversationID: h.chat.ConversationID(),
		State:          string(h.chat.State()),
		Messages:       h.chat.Messages(),
	})
}

// HandleSendMessage godoc
// @Summary      Send a message
// @Description  Submits a user message and streams transcript, state and notification events until the request settles. The last event is `result`.
// @Tags         Conversation
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body      SendMessageRequest  true  "Message"
// @Success      200      {object}  SendResultResponse  "Stream of events"
// @Failure      400      {object}  ErrorResponse       "Sent as a stream error event"
// @Router       /v1/conversation/messages [post]
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body", "error", err)
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	queue := newEventQueue()
	unsubscribe := h.chat.Subscribe(queue)
	defer unsubscribe()

	done := make(chan service.Result, 1)
	go func() {
		done <- h.chat.SendMessage(r.Context(), req.Content)
	}()

	clientGone := false
	flush := func() {
		for _, ev := range queue.drain() {
			if clientGone {
				return
			}
			if err := writeNamedEvent(w, string(ev.Type), ev); err != nil {
				slog.Warn("Could not write to message stream, client likely disconnected", "error", err)
				clientGone = true
			}
		}
	}

	for {
		select {
		case <-queue.ready:
			flush()
		case res := <-done:
			flush()
			if clientGone {
				return
			}
			out := SendResultResponse{
				State:     string(res.State),
				MessageID: res.MessageID,
				Content:   res.Content,
				Saved:     res.Saved,
			}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			if err := writeNamedEvent(w, "result", out); err != nil {
				slog.Warn("Could not write result event", "error", err)
			}
			return
		}
	}
}

// HandleCancel godoc
// @Summary      Cancel the in-flight request
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  CancelResponse
// @Router       /v1/conversation/cancel [post]
func (h *ChatHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, CancelResponse{Cancelled: h.chat.Cancel()})
}

// HandleNewChat godoc
// @Summary      Start a new conversation
// @Tags         Conversation
// @Produce      json
// @Success      201  {object}  model.Conversation
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversation/new [post]
func (h *ChatHandler) HandleNewChat(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chat.NewChat(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, conv)
}

// HandleClearHistory godoc
// @Summary      Clear history
// @Description  Deletes the active conversation and starts a new one.
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversation [delete]
func (h *ChatHandler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ClearHistory(r.Context()); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetConversations godoc
// @Summary      List conversations
// @Tags         Conversations
// @Produce      json
// @Success      200  {array}   model.Conversation
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [get]
func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.ListConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if convs == nil {
		convs = []*model.Conversation{}
	}
	respondWithJSON(w, http.StatusOK, convs)
}

// GetConversationByID godoc
// @Summary      Get a conversation
// @Tags         Conversations
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  model.FullConversation
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [get]
func (h *ChatHandler) GetConversationByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	full, err := h.chat.GetConversation(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, full)
}

// UpdateConversationTitle godoc
// @Summary      Rename a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        conversationID  path      string              true  "Conversation ID"
// @Param        title           body      UpdateTitleRequest  true  "New title"
// @Success      200             {object}  StatusResponse
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID}/title [put]
func (h *ChatHandler) UpdateConversationTitle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.chat.UpdateConversationTitle(r.Context(), id, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// eventQueue buffers observer events for one streaming response. Observe
// never blocks the caller.
type eventQueue struct {
	mu     sync.Mutex
	events []model.Event
	ready  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

func (q *eventQueue) Observe(ev model.Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []model.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}
