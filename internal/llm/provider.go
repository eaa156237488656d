package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"

	apperrors "nova-chat/backend/internal/errors"
)

// User-facing messages for the two upstream limits.
const (
	RateLimitMessage  = "Rate limit exceeded. Please try again in a moment."
	UsageLimitMessage = "Usage limit reached. Please add credits to continue."
)

// LLMProvider defines the interface for interacting with the upstream model gateway.
type LLMProvider interface {
	GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error
	ListModels(ctx context.Context) (*ListModelsResponse, error)
}

// GenerateRequest is a streaming completion request.
type GenerateRequest struct {
	Model    string
	Messages []Message
}

// StreamChunk mirrors one chat.completion.chunk event. It is re-encoded as
// the payload of a `data:` line.
type StreamChunk struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices"`
}

type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

type ChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Model describes one model offered by the gateway.
type Model struct {
	Name    string `json:"name"`
	OwnedBy string `json:"owned_by,omitempty"`
}

type ListModelsResponse struct {
	Models []Model `json:"models"`
}

type openAIProvider struct {
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAIProvider returns an LLMProvider for an OpenAI-compatible gateway.
// An empty baseURL keeps the library default.
func NewOpenAIProvider(baseURL, apiKey string, logger *slog.Logger) LLMProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(cfg),
		logger: logger.With(slog.String("module", "gateway")),
	}
}

// GenerateStream sends chunks to ch until the upstream stream ends. ch is
// always closed before returning.
func (p *openAIProvider) GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error {
	defer close(ch)

	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return classifyUpstreamError(ctx, err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return classifyUpstreamError(ctx, err)
		}

		select {
		case ch <- toStreamChunk(resp):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *openAIProvider) ListModels(ctx context.Context) (*ListModelsResponse, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, classifyUpstreamError(ctx, err)
	}
	out := &ListModelsResponse{Models: make([]Model, 0, len(list.Models))}
	for _, m := range list.Models {
		out.Models = append(out.Models, Model{Name: m.ID, OwnedBy: m.OwnedBy})
	}
	return out, nil
}

func toStreamChunk(resp openai.ChatCompletionStreamResponse) StreamChunk {
	chunk := StreamChunk{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]ChunkChoice, len(resp.Choices)),
	}
	for i, c := range resp.Choices {
		chunk.Choices[i] = ChunkChoice{
			Index:        c.Index,
			Delta:        ChunkDelta{Role: c.Delta.Role, Content: c.Delta.Content},
			FinishReason: string(c.FinishReason),
		}
	}
	return chunk
}

// classifyUpstreamError turns go-openai errors into a StatusError so callers
// can branch on the status with errors.Is. Context errors pass through.
func classifyUpstreamError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}

	switch code {
	case http.StatusTooManyRequests:
		return &StatusError{Code: code, Message: RateLimitMessage}
	case http.StatusPaymentRequired:
		return &StatusError{Code: code, Message: UsageLimitMessage}
	case 0:
		return fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	default:
		return &StatusError{Code: code, Message: err.Error()}
	}
}
