package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"localchat/internal/upstream"
	"localchat/pkg/types"
)

// Providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Chat defaults.
const (
	DefaultSystemPrompt = "You are a helpful and knowledgeable AI assistant. Reply naturally in the language the user writes in."
	DefaultOllamaModel  = "llama3.2"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 2000
)

// ollamaAPIKey is sent to Ollama, which ignores it but the client requires one.
const ollamaAPIKey = "ollama"

// ChatOpener opens a streamed chat completion. *upstream.OpenAIClient
// satisfies it.
type ChatOpener interface {
	OpenChatStream(ctx context.Context, baseURL, apiKey string, req openai.ChatCompletionRequest) (upstream.ChatStream, error)
}

// ChatConfig holds the process-wide chat settings.
type ChatConfig struct {
	SystemPrompt   string
	OllamaEndpoint string
	OllamaModel    string
	OpenAIModel    string
	OpenAIAPIKey   string
	// Timeout bounds one chat stream; zero disables it.
	Timeout time.Duration
}

// Target is a resolved upstream for one chat request.
type Target struct {
	Provider string
	// BaseURL is empty for OpenAI, meaning the client's configured root.
	BaseURL string
	APIKey  string
	Model   string
}

// ChatRelay streams chat completions as OpenAI-style SSE.
type ChatRelay struct {
	cfg    ChatConfig
	opener ChatOpener
	log    zerolog.Logger
}

// NewChatRelay returns a relay using opener for every provider.
func NewChatRelay(cfg ChatConfig, opener ChatOpener, log zerolog.Logger) *ChatRelay {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = DefaultOllamaModel
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	return &ChatRelay{cfg: cfg, opener: opener, log: log}
}

// Resolve validates req and picks the provider. An explicit provider wins;
// otherwise a non-empty apiKey selects OpenAI.
func (c *ChatRelay) Resolve(req types.ChatRequest) (Target, error) {
	if len(req.Messages) == 0 {
		return Target{}, configError("messages are required", "the conversation is empty")
	}
	for i, m := range req.Messages {
		switch m.Role {
		case types.RoleSystem, types.RoleUser, types.RoleAssistant:
		default:
			return Target{}, configError("invalid message role", "message "+strconv.Itoa(i)+" has role "+strconv.Quote(m.Role))
		}
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	switch provider {
	case "":
		provider = ProviderOllama
		if strings.TrimSpace(req.APIKey) != "" {
			provider = ProviderOpenAI
		}
	case ProviderOllama, ProviderOpenAI:
	default:
		return Target{}, configError("unknown provider", "provider must be ollama or openai, got "+strconv.Quote(req.Provider))
	}

	model := strings.TrimSpace(req.ModelName)
	if provider == ProviderOllama {
		if model == "" {
			model = c.cfg.OllamaModel
		}
		return Target{
			Provider: ProviderOllama,
			BaseURL:  upstream.OpenAIBase(req.Endpoint, c.cfg.OllamaEndpoint),
			APIKey:   ollamaAPIKey,
			Model:    model,
		}, nil
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = c.cfg.OpenAIAPIKey
	}
	if key == "" {
		return Target{}, configError("OpenAI API key is not configured", "send apiKey or set OPENAI_API_KEY")
	}
	if model == "" {
		model = c.cfg.OpenAIModel
	}
	if !upstream.IsChatModel(model) {
		return Target{}, configError("unsupported OpenAI model", strconv.Quote(model)+" is not a chat model")
	}
	return Target{Provider: ProviderOpenAI, APIKey: key, Model: model}, nil
}

// Request builds the upstream completion request with the system message
// prepended.
func (c *ChatRelay) Request(t Target, msgs []types.ChatMessage) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt})
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{Model: t.Model, Messages: out, Stream: true}
	if t.Provider == ProviderOpenAI && upstream.IsReasoningModel(t.Model) {
		req.MaxCompletionTokens = DefaultMaxTokens
	} else {
		req.Temperature = DefaultTemperature
		req.MaxTokens = DefaultMaxTokens
	}
	return req
}

// Stream relays one completion to w. Each upstream chunk becomes a
// "data: <json>" frame and a clean end writes "data: [DONE]". Failures
// before the first frame are *UpstreamError; later failures are mid-stream
// errors and leave the stream truncated.
func (c *ChatRelay) Stream(ctx context.Context, t Target, msgs []types.ChatMessage, w io.Writer, flush func()) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	stream, err := c.opener.OpenChatStream(ctx, t.BaseURL, t.APIKey, c.Request(t, msgs))
	if err != nil {
		return &UpstreamError{Provider: t.Provider, Status: upstream.StatusCodeOf(err), Err: err}
	}
	defer stream.Close()

	frames := 0
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if werr := writeFrame(w, flush, donePayload); werr != nil {
				return midStreamError{werr}
			}
			c.log.Debug().Str("provider", t.Provider).Str("model", t.Model).Int("frames", frames).Msg("chat stream done")
			return nil
		}
		if err != nil {
			if frames == 0 {
				return &UpstreamError{Provider: t.Provider, Status: upstream.StatusCodeOf(err), Err: err}
			}
			return midStreamError{err}
		}
		b, err := json.Marshal(chunk)
		if err != nil {
			return midStreamError{err}
		}
		if err := writeFrame(w, flush, b); err != nil {
			return midStreamError{err}
		}
		frames++
	}
}
