package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "nova-chat/backend/internal/errors"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

// Message is one turn of the outbound conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON body sent to a chat endpoint.
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,dive"`
}

// ErrorBody is the JSON error object returned by chat endpoints.
type ErrorBody struct {
	Error string `json:"error"`
}

// StatusError reports a non-2xx response. It unwraps to ErrRateLimited for
// 429, ErrUsageLimit for 402 and ErrUpstream for everything else.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	case http.StatusPaymentRequired:
		return apperrors.ErrUsageLimit
	default:
		return apperrors.ErrUpstream
	}
}

// ChatClient opens a streaming chat completion. The returned body yields
// SSE-framed bytes and must be closed by the caller.
type ChatClient interface {
	Open(ctx context.Context, messages []Message) (io.ReadCloser, error)
}

type httpChatClient struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewChatClient returns a ChatClient posting to endpoint. The client has no
// overall timeout; callers bound requests through their context.
func NewChatClient(endpoint, apiKey string) ChatClient {
	return &httpChatClient{
		client:   &http.Client{},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (c *httpChatClient) Open(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	body, err := json.Marshal(ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return resp.Body, nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}
