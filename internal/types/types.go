// Package types provides shared type definitions for the application.
package types

import (
	"fmt"
	"time"
)

// Mode is the capture mode of a push-to-talk cycle.
type Mode int

const (
	ModeAudioOnly Mode = iota
	ModeAudioWithImage
)

func (m Mode) String() string {
	switch m {
	case ModeAudioOnly:
		return "audio_only"
	case ModeAudioWithImage:
		return "audio_with_image"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Key is a trigger key name as written in the config, e.g. "cmd_r".
type Key string

// MinRegionSize is the smallest dragged region (per side, in points) that is
// used for a screenshot.
const MinRegionSize = 50

// Rect is a screen rectangle in global display coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Normalize flips negative extents so that W and H are non-negative.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// AtLeast reports whether both sides are at least min.
func (r Rect) AtLeast(min int) bool {
	return r.W >= min && r.H >= min
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x <= float64(r.X+r.W) &&
		y >= float64(r.Y) && y <= float64(r.Y+r.H)
}

// String formats the rectangle as "x,y,w,h", the format used by the
// overlay result file and by screencapture -R.
func (r Rect) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.W, r.H)
}

// Window identifies an on-screen window.
type Window struct {
	ID     uint32 `json:"id"`
	App    string `json:"app"`
	Bounds Rect   `json:"bounds"`
}

// EmotionScore is one prosody label with its score in [0, 1].
type EmotionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ProcessingResult is everything the submission step needs for one cycle.
type ProcessingResult struct {
	// RawTranscript is the text as returned by transcription. Mode decisions
	// are made on this text only.
	RawTranscript string
	// Text is the cleaned transcript, or RawTranscript when cleanup was
	// skipped or failed.
	Text           string
	Emotions       []EmotionScore
	ScreenshotPath string
	CreatedAt      time.Time
}

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CacheHit         bool `json:"cacheHit"`
}
