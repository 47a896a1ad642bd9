// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.aimuz.me/murmur/internal/types"
)

const (
	appName        = "murmur"
	configFileName = "config.json"
)

// ErrMissingAPIKey is returned by Validate when the transcription key is absent.
var ErrMissingAPIKey = errors.New("missing OpenAI API key (set OPENAI_API_KEY)")

// Config represents the application configuration.
type Config struct {
	Keys          Keys          `json:"keys"`
	Audio         Audio         `json:"audio"`
	Transcription Transcription `json:"transcription"`
	Emotion       Emotion       `json:"emotion"`
	Cleanup       Cleanup       `json:"cleanup"`
	Screenshot    Screenshot    `json:"screenshot"`
	Browser       Browser       `json:"browser"`
	Message       Message       `json:"message"`
	Overlay       Overlay       `json:"overlay"`
	Feedback      Feedback      `json:"feedback"`

	path string
}

// Keys binds the two trigger keys.
type Keys struct {
	WithScreenshot types.Key `json:"with_screenshot"`
	AudioOnly      types.Key `json:"audio_only"`
}

// Audio configures the input stream.
type Audio struct {
	SampleRate         int    `json:"sample_rate"`
	Channels           int    `json:"channels"`
	FramesPerBuffer    int    `json:"frames_per_buffer"`
	MaxDurationSeconds int    `json:"max_duration_seconds"`
	UploadCodec        string `json:"upload_codec"` // "wav" or "opus"
}

// MaxDuration returns the recording ceiling.
func (a Audio) MaxDuration() time.Duration {
	return time.Duration(a.MaxDurationSeconds) * time.Second
}

// Transcription configures the speech-to-text API.
type Transcription struct {
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model"`
	Language       string `json:"language"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Emotion configures prosody analysis.
type Emotion struct {
	Enabled  bool    `json:"enabled"`
	APIKey   string  `json:"api_key,omitempty"`
	BaseURL  string  `json:"base_url,omitempty"`
	TopN     int     `json:"top_n"`
	MinScore float64 `json:"min_score"`
}

// Cleanup configures transcript cleanup through an OpenAI-compatible API.
type Cleanup struct {
	Enabled       bool   `json:"enabled"`
	APIKey        string `json:"api_key,omitempty"`
	BaseURL       string `json:"base_url"`
	Model         string `json:"model"`
	TimeoutMillis int    `json:"timeout_millis"`
	Cache         bool   `json:"cache"`
	LanguageGuard bool   `json:"language_guard"`
}

// Timeout returns the client-side cleanup deadline.
func (c Cleanup) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Screenshot configures post-processing of captures.
type Screenshot struct {
	Enhance      bool `json:"enhance"`
	MaxDimension int  `json:"max_dimension"` // 0 keeps the native size
}

// Browser configures the remote-debugging target.
type Browser struct {
	DebugAddress         string `json:"debug_address"`
	TargetURL            string `json:"target_url"`
	AppName              string `json:"app_name"`
	DeepResearchKeyword  string `json:"deep_research_keyword"`
	QueryTimeoutSeconds  int    `json:"query_timeout_seconds"`
	UploadTimeoutSeconds int    `json:"upload_timeout_seconds"`
}

// Message configures the text appended to every submission.
type Message struct {
	FormatHintEnabled bool   `json:"format_hint_enabled"`
	FormatHint        string `json:"format_hint"`
}

// Overlay configures the region selection program. Command is argv; the
// literal "{out}" in any argument is replaced by the result file path.
type Overlay struct {
	Command     []string `json:"command,omitempty"`
	GraceMillis int      `json:"grace_millis"`
}

// Feedback toggles beeps and desktop notifications.
type Feedback struct {
	Beeps         bool `json:"beeps"`
	Notifications bool `json:"notifications"`
}

// Load loads configuration from path, or from the default location when
// path is empty. Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("get config path: %w", err)
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// Keys come from the environment; never write them back.
	out := *c
	out.Transcription.APIKey = ""
	out.Emotion.APIKey = ""
	out.Cleanup.APIKey = ""

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string { return c.path }

// Validate reports configuration that makes the program unable to run.
func (c *Config) Validate() error {
	if c.Transcription.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("invalid channel count: %d", c.Audio.Channels)
	}
	if c.Audio.MaxDurationSeconds <= 0 {
		return fmt.Errorf("invalid max recording duration: %ds", c.Audio.MaxDurationSeconds)
	}
	if !slices.Contains([]string{"wav", "opus"}, c.Audio.UploadCodec) {
		return fmt.Errorf("invalid upload codec: %q", c.Audio.UploadCodec)
	}
	if c.Emotion.TopN < 1 {
		return fmt.Errorf("invalid emotion top_n: %d", c.Emotion.TopN)
	}
	if c.Emotion.MinScore < 0 || c.Emotion.MinScore > 1 {
		return fmt.Errorf("invalid emotion min_score: %v", c.Emotion.MinScore)
	}
	if c.Keys.WithScreenshot == "" || c.Keys.AudioOnly == "" {
		return fmt.Errorf("both trigger keys must be set")
	}
	if c.Keys.WithScreenshot == c.Keys.AudioOnly {
		return fmt.Errorf("trigger keys must differ: both are %q", c.Keys.WithScreenshot)
	}
	return nil
}

// Normalize turns off optional features whose credentials are missing.
func (c *Config) Normalize() {
	if c.Emotion.Enabled && c.Emotion.APIKey == "" {
		slog.Warn("emotion analysis enabled but HUME_API_KEY is not set, disabling")
		c.Emotion.Enabled = false
	}
	if c.Cleanup.Enabled && c.Cleanup.APIKey == "" {
		slog.Warn("prompt cleanup enabled but GROQ_API_KEY is not set, disabling")
		c.Cleanup.Enabled = false
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Keys: Keys{
			WithScreenshot: "cmd_r",
			AudioOnly:      "shift_r",
		},
		Audio: Audio{
			SampleRate:         16000,
			Channels:           1,
			FramesPerBuffer:    1024,
			MaxDurationSeconds: 300,
			UploadCodec:        "wav",
		},
		Transcription: Transcription{
			Model:          "whisper-1",
			Language:       "en",
			TimeoutSeconds: 60,
		},
		Emotion: Emotion{
			Enabled:  false,
			TopN:     3,
			MinScore: 0.1,
		},
		Cleanup: Cleanup{
			Enabled:       false,
			BaseURL:       "https://api.groq.com/openai/v1",
			Model:         "llama3-8b-8192",
			TimeoutMillis: 2500,
			Cache:         true,
			LanguageGuard: true,
		},
		Screenshot: Screenshot{
			Enhance: true,
		},
		Browser: Browser{
			DebugAddress:         "127.0.0.1:9222",
			TargetURL:            "perplexity.ai",
			AppName:              "Google Chrome",
			DeepResearchKeyword:  "research",
			QueryTimeoutSeconds:  20,
			UploadTimeoutSeconds: 20,
		},
		Message: Message{
			FormatHintEnabled: false,
			FormatHint: "Respond in EXACTLY this format: <<<TLDR>>> <TL;DR in 2 sentence(s)> " +
				"<<<FULL>>> <full answer> <<<END>>> (include the markers verbatim).",
		},
		Overlay: Overlay{
			GraceMillis: 500,
		},
		Feedback: Feedback{
			Beeps:         true,
			Notifications: true,
		},
	}
}
