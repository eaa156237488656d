package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"nova-chat/backend/internal/interfaces"
	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/observability"
)

const doneMarker = "[DONE]"

// RelayHandler exposes the relay as an OpenAI-style streaming endpoint.
type RelayHandler struct {
	relay   interfaces.RelayService
	metrics *observability.StreamingMetrics
}

func NewRelayHandler(relay interfaces.RelayService, metrics *observability.StreamingMetrics) *RelayHandler {
	return &RelayHandler{relay: relay, metrics: metrics}
}

// HandleChat godoc
// @Summary      Streaming chat completion
// @Description  Forwards the conversation to the gateway with the assistant's system prompt and streams `data:` chunks terminated by `data: [DONE]`.
// @Tags         Relay
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      llm.ChatRequest  true  "Conversation"
// @Success      200      {object}  llm.StreamChunk  "Stream of chunks"
// @Failure      400      {object}  ErrorResponse
// @Failure      402      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /v1/chat [post]
func (h *RelayHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req llm.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RelayResponded(strconv.Itoa(http.StatusBadRequest))
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(&req); err != nil {
		h.metrics.RelayResponded(strconv.Itoa(http.StatusBadRequest))
		respondWithError(w, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rs, err := h.relay.Start(ctx, req.Messages)
	if err != nil {
		status, _ := errorStatus(err)
		h.metrics.RelayResponded(strconv.Itoa(status))
		respondWithError(w, err)
		return
	}

	h.metrics.RelayResponded(strconv.Itoa(http.StatusOK))
	setStreamHeaders(w)
	w.WriteHeader(http.StatusOK)

	for {
		chunk, ok := rs.Next()
		if !ok {
			break
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Warn("Could not write to relay stream, client likely disconnected", "error", err)
			return
		}
	}

	if err := rs.Err(); err != nil {
		slog.Error("Relay stream ended with error", "error", err)
		_, message := errorStatus(err)
		sendStreamError(w, message)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", doneMarker); err != nil {
		slog.Warn("Could not write end of relay stream", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
