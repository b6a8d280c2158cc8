package upstream

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL is the public OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient builds go-openai clients on demand. The key and base URL vary
// per request (browser-supplied key, or a local Ollama /v1 endpoint), so no
// client is cached.
type OpenAIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient returns a factory for baseURL (DefaultOpenAIBaseURL when empty).
func NewOpenAIClient(baseURL string, httpClient *http.Client) *OpenAIClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &OpenAIClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// BaseURL returns the configured OpenAI API root.
func (c *OpenAIClient) BaseURL() string { return c.baseURL }

func (c *OpenAIClient) client(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = c.baseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(cfg)
}

// ListModels lists every model visible to apiKey.
func (c *OpenAIClient) ListModels(ctx context.Context, apiKey string) ([]openai.Model, error) {
	list, err := c.client(apiKey, "").ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return list.Models, nil
}

// ChatStream is the subset of *openai.ChatCompletionStream used by the relay.
type ChatStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// OpenChatStream starts a streamed chat completion against baseURL
// (the configured OpenAI root when empty). Errors returned here happen
// before any token was produced.
func (c *OpenAIClient) OpenChatStream(ctx context.Context, baseURL, apiKey string, req openai.ChatCompletionRequest) (ChatStream, error) {
	stream, err := c.client(apiKey, baseURL).CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// StatusCodeOf extracts the upstream HTTP status from a go-openai error,
// or 0 when the failure happened below HTTP.
func StatusCodeOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	if se, ok := IsStatus(err); ok {
		return se.StatusCode
	}
	return 0
}

// IsChatModel reports whether an OpenAI model id names a chat-capable model.
// Fine-tuned ids (ft:...) always qualify.
func IsChatModel(id string) bool {
	if strings.HasPrefix(id, "ft:") {
		return true
	}
	for _, s := range []string{"gpt", "o1", "text-davinci", "claude", "nano", "mini"} {
		if strings.Contains(id, s) {
			return true
		}
	}
	return false
}

// IsReasoningModel reports whether id belongs to a family that rejects
// temperature and expects max_completion_tokens.
func IsReasoningModel(id string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}
