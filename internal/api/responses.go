package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	app_errors "nova-chat/backend/internal/errors"
	"nova-chat/backend/internal/llm"
	"nova-chat/backend/internal/model"
)

// This file contains shared DTOs (Data Transfer Objects) for API responses
// and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that
// don't need to return a full resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// UpdateTitleRequest is the DTO for the manual conversation title update endpoint.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=100" example:"My Custom Chat Title"`
}

// SendMessageRequest is the DTO for submitting a user message.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required" example:"What is the weather today?"`
}

// ConversationStateResponse describes the active conversation.
type ConversationStateResponse struct {
	ConversationID string          `json:"conversation_id"`
	State          string          `json:"state"`
	Messages       []model.Message `json:"messages"`
}

// CancelResponse reports whether a request was in flight.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// SendResultResponse is the final event of a message stream.
type SendResultResponse struct {
	State     string `json:"state"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content"`
	Saved     bool   `json:"saved"`
	Error     string `json:"error,omitempty"`
}

// respondWithError is the centralized error handling function for the API layer.
// It maps business-layer errors to HTTP status codes and a standard JSON body.
func respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := errorStatus(err)

	// The detailed error is logged, while a client-safe message is sent.
	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound, "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		// Validation messages from the service layer are already user-friendly.
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app_errors.ErrConflict):
		return http.StatusConflict, "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrPermission):
		return http.StatusForbidden, "You do not have permission to perform this action."
	case errors.Is(err, app_errors.ErrRateLimited):
		return http.StatusTooManyRequests, llm.RateLimitMessage
	case errors.Is(err, app_errors.ErrUsageLimit):
		return http.StatusPaymentRequired, llm.UsageLimitMessage
	case errors.Is(err, app_errors.ErrUpstream):
		var se *llm.StatusError
		if errors.As(err, &se) {
			return http.StatusInternalServerError, fmt.Sprintf("AI gateway error: %d", se.Code)
		}
		return http.StatusInternalServerError, "AI gateway error"
	default:
		// Anything unhandled is an internal error. Details stay in the logs.
		return http.StatusInternalServerError, "An unexpected internal server error occurred."
	}
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// sendStreamError sends a structured error message as an `error` event.
func sendStreamError(w http.ResponseWriter, message string) {
	slog.Warn("Sending stream error to client", "message", message)
	if err := writeNamedEvent(w, "error", ErrorResponse{Error: message}); err != nil {
		slog.Warn("Failed to write stream error, client might have disconnected", "error", err)
	}
}

// writeStreamEvent marshals data and writes it as an unnamed SSE event. A
// returned error means the client has gone away.
func writeStreamEvent(w http.ResponseWriter, data interface{}) error {
	return writeNamedEvent(w, "", data)
}

func writeNamedEvent(w http.ResponseWriter, name string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal stream data to JSON", "error", err)
		// The connection is still fine; only this payload is dropped.
		return nil
	}

	if name != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", name); err != nil {
			return fmt.Errorf("failed to write event name to stream: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return fmt.Errorf("failed to write data to stream: %w", err)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
