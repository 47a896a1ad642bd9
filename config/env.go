package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local and .env from the working directory and then
// from dirs, in that order. Variables that are already set win, matching
// godotenv.Load.
func LoadDotEnv(dirs ...string) error {
	paths := []string{".env.local", ".env"}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		paths = append(paths, filepath.Join(d, ".env.local"), filepath.Join(d, ".env"))
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
		slog.Debug("loaded env file", "path", p)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the file configuration.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			slog.Warn("ignore invalid boolean env", "name", name, "value", v)
			return
		}
		*dst = b
	}
	integer := func(name string, dst *int) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			slog.Warn("ignore invalid integer env", "name", name, "value", v)
			return
		}
		*dst = n
	}

	str("OPENAI_API_KEY", &c.Transcription.APIKey)
	str("OPENAI_STT_MODEL", &c.Transcription.Model)
	str("TRANSCRIPTION_LANGUAGE", &c.Transcription.Language)
	str("HUME_API_KEY", &c.Emotion.APIKey)
	str("GROQ_API_KEY", &c.Cleanup.APIKey)
	str("GROQ_BASE_URL", &c.Cleanup.BaseURL)
	str("GROQ_CLEANUP_MODEL", &c.Cleanup.Model)

	boolean("ENABLE_EMOTION_ANALYSIS", &c.Emotion.Enabled)
	boolean("ENABLE_PROMPT_CLEANUP", &c.Cleanup.Enabled)
	boolean("ENABLE_RESPONSE_FORMAT_HINT", &c.Message.FormatHintEnabled)

	integer("MAX_RECORDING_DURATION", &c.Audio.MaxDurationSeconds)
	integer("AUDIO_SAMPLE_RATE", &c.Audio.SampleRate)
	integer("EMOTION_TOP_N", &c.Emotion.TopN)

	if v, ok := lookup("EMOTION_MIN_SCORE"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Emotion.MinScore = f
		} else {
			slog.Warn("ignore invalid float env", "name", "EMOTION_MIN_SCORE", "value", v)
		}
	}
}
