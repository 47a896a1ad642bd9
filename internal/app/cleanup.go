package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.aimuz.me/murmur/cache"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/langdetect"
	"go.aimuz.me/murmur/llm"
)

const cleanupSystemPrompt = `You are a transcription cleanup engine.

Rewrite the user's text with STRICT cleanup-only rules:
- Preserve meaning exactly. Do not add new ideas, facts, assumptions, or steps.
- Do not expand the request. Do not make it more detailed.
- Preserve the user's intent and speech act (question vs command vs statement).
  - If the input is a question, the output MUST remain a question.
  - Do NOT turn a question into advice.
- Do NOT remove or summarize substantive context (background details, constraints, entities, environment).
  - Keep platform, product and context words, filenames and error codes.
  - Remove only filler words and obvious speech-to-text noise.
- Remove filler words (um, uh, like) and obvious transcription artifacts.
- Fix punctuation, casing, and spacing.
- Keep technical terms, code identifiers, and acronyms unchanged.
- Keep the output as a single line (no newlines).

Return ONLY the cleaned text. No preamble, no quotes, no bullet points.`

// Cleaner rewrites transcripts through a chat model, with caching.
// Zero value is not useful; create via NewCleaner.
type Cleaner struct {
	completer llm.Completer
	model     string
	cache     *cache.Cache
	guard     bool
}

// NewCleaner creates a Cleaner. A nil cache disables caching; guard rejects
// output whose language differs from the input.
func NewCleaner(completer llm.Completer, model string, c *cache.Cache, guard bool) *Cleaner {
	return &Cleaner{completer: completer, model: model, cache: c, guard: guard}
}

// Clean returns the cleaned transcript. ok is false when the model failed,
// timed out, returned nothing or switched language; callers keep the raw
// text then.
func (c *Cleaner) Clean(ctx context.Context, text string) (string, bool) {
	text = collapse(text)
	if text == "" {
		return "", false
	}

	key := c.cacheKey(text)
	if cleaned, ok := c.getCached(key); ok {
		slog.Debug("cleanup cache hit")
		return cleaned, true
	}

	out, usage, err := c.completer.Complete(ctx, buildCleanupMessages(text))
	if err != nil {
		slog.Warn("clean transcript", "error", err)
		return "", false
	}

	cleaned := collapse(out)
	if cleaned == "" {
		slog.Warn("clean transcript", "error", "empty output")
		return "", false
	}
	if c.guard && !langdetect.Same(text, cleaned) {
		slog.Warn("clean transcript", "error", "language changed")
		return "", false
	}

	c.setCache(key, cleaned, usage)
	return cleaned, true
}

func buildCleanupMessages(text string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: cleanupSystemPrompt},
		{Role: "user", Content: text},
	}
}

// collapse trims s and joins whitespace runs with a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (c *Cleaner) cacheKey(text string) string {
	return cache.GenerateKey("cleanup", c.model, text)
}

func (c *Cleaner) getCached(key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}

	entry, found := c.cache.Get(key)
	if !found || entry.Text == "" {
		return "", false
	}
	return entry.Text, true
}

func (c *Cleaner) setCache(key, text string, usage types.Usage) {
	if c.cache == nil {
		return
	}

	entry := &cache.Entry{
		Text: text,
		Usage: cache.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
		CreatedAt: time.Now(),
	}

	// Ignore error - caching is best effort
	_ = c.cache.Set(key, entry, cache.DefaultTTL)
}
