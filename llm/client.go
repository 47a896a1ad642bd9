// Package llm provides chat completion clients for OpenAI-compatible APIs.
package llm

import (
	"context"
	"net/http"
	"time"

	"go.aimuz.me/murmur/internal/types"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures LLM completion behavior.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	// Timeout bounds a single request; retries are disabled when set.
	Timeout time.Duration
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
type completerConfig struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	topP        float64
	timeout     time.Duration
}

// NewCompleter creates a Completer for an OpenAI-compatible endpoint such as
// Groq. A nil client uses the SDK default.
func NewCompleter(apiKey, baseURL, model string, opts Options, hc *http.Client) Completer {
	return newOpenAICompleter(completerConfig{
		http:        hc,
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		topP:        opts.TopP,
		timeout:     opts.Timeout,
	})
}
