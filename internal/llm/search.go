package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultSearchURL   = "https://api.perplexity.ai/chat/completions"
	DefaultSearchModel = "sonar"

	searchInstruction = "Provide current, factual, up-to-date information. Be concise and accurate."
	searchTimeout     = 30 * time.Second
)

// currentInfoKeywords trigger a search before the completion request.
var currentInfoKeywords = []string{
	"today", "current", "latest", "now", "recent", "news", "weather",
	"2024", "2025", "price", "stock", "score", "result", "update",
	"aaj", "abhi", "naya", "khabar",
	"who is", "what is", "when is", "where is", "how much",
	"president", "prime minister", "ceo", "match", "game",
}

// NeedsCurrentInfo reports whether message looks like it asks for real-time
// information. Matching is a case-insensitive substring test.
func NeedsCurrentInfo(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range currentInfoKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SearchResult is the answer of the search provider and its sources.
type SearchResult struct {
	Content   string   `json:"content"`
	Citations []string `json:"citations"`
}

// SearchClient fetches current information for a query.
type SearchClient interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type searchClient struct {
	client *http.Client
	url    string
	apiKey string
	model  string
	logger *slog.Logger
}

// NewSearchClient returns a SearchClient. Without an API key searches are
// skipped and return a nil result.
func NewSearchClient(url, apiKey, model string, logger *slog.Logger) SearchClient {
	if url == "" {
		url = DefaultSearchURL
	}
	if model == "" {
		model = DefaultSearchModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &searchClient{
		client: &http.Client{Timeout: searchTimeout},
		url:    url,
		apiKey: apiKey,
		model:  model,
		logger: logger.With(slog.String("module", "search")),
	}
}

type searchResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

func (c *searchClient) Search(ctx context.Context, query string) (*SearchResult, error) {
	if c.apiKey == "" {
		c.logger.Debug("Search API key not configured, skipping search")
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []Message{
			{Role: "system", Content: searchInstruction},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("could not decode search response: %w", err)
	}
	if len(sr.Choices) == 0 {
		return nil, fmt.Errorf("search returned no choices")
	}

	citations := sr.Citations
	if citations == nil {
		citations = []string{}
	}
	return &SearchResult{Content: sr.Choices[0].Message.Content, Citations: citations}, nil
}
