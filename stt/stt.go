// Package stt transcribes recorded audio through the OpenAI transcription API.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/murmur/internal/faults"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 60 * time.Second
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path, language string) (string, error)
}

// Config holds configuration for Client.
type Config struct {
	APIKey     string
	BaseURL    string // Optional, defaults to OpenAI's API
	Model      string // Optional, defaults to "whisper-1"
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a Transcriber backed by the OpenAI audio API.
type Client struct {
	client openai.Client
	model  string
}

// New creates a transcription client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{client: openai.NewClient(opts...), model: cfg.Model}
}

// Transcribe uploads the file and returns the trimmed text. An empty or
// "auto" language lets the service detect it.
func (c *Client) Transcribe(ctx context.Context, path, language string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(c.model),
	}
	if language != "" && !strings.EqualFold(language, "auto") {
		params.Language = openai.String(language)
	}

	start := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", faults.RemoteAPI("transcribe", statusOf(err), err)
	}

	text := strings.TrimSpace(resp.Text)
	slog.Debug("transcription done", "model", c.model, "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}

func statusOf(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
