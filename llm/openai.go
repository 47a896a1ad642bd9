package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/murmur/internal/faults"
	"go.aimuz.me/murmur/internal/types"
)

const defaultBaseURL = "https://api.openai.com/v1"

// openaiCompleter implements Completer for OpenAI and compatible APIs.
type openaiCompleter struct {
	cfg    completerConfig
	client openai.Client
}

func newOpenAICompleter(cfg completerConfig) *openaiCompleter {
	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/")),
		option.WithAPIKey(strings.TrimSpace(cfg.apiKey)),
	}
	if cfg.http != nil {
		opts = append(opts, option.WithHTTPClient(cfg.http))
	}
	if cfg.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.timeout), option.WithMaxRetries(0))
	}
	return &openaiCompleter{cfg: cfg, client: openai.NewClient(opts...)}
}

func (c *openaiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.model),
		Messages:    toParams(messages),
		Temperature: openai.Float(c.cfg.temperature),
	}
	if c.cfg.topP > 0 {
		params.TopP = openai.Float(c.cfg.topP)
	}
	if c.cfg.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", types.Usage{}, faults.RemoteAPI("chat completion", status, err)
	}
	if len(resp.Choices) == 0 {
		return "", types.Usage{}, faults.RemoteAPI("chat completion", 0, errors.New("no choices"))
	}

	usage := types.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
