package app

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"

	"go.aimuz.me/murmur/internal/types"
)

const affectSource = "hume_prosody"

// BuildMessage assembles the text typed into the chat input: an optional
// voice_affect prefix, the transcript, and an optional one-line format hint.
func BuildMessage(text string, emotions []types.EmotionScore, hint string) string {
	msg := text
	if prefix := affectPrefix(emotions); prefix != "" {
		msg = prefix + msg
	}

	hint = collapse(hint)
	if hint == "" {
		return msg
	}
	if msg == "" || strings.HasSuffix(msg, " ") || strings.HasSuffix(msg, "\t") {
		return msg + hint
	}
	return msg + " " + hint
}

func affectPrefix(emotions []types.EmotionScore) string {
	if len(emotions) == 0 {
		return ""
	}
	scores := make(map[string]float64, len(emotions))
	for _, e := range emotions {
		scores[e.Name] = e.Score
	}
	data, err := json.Marshal(struct {
		Source string             `json:"source"`
		Scores map[string]float64 `json:"scores"`
	}{affectSource, scores})
	if err != nil {
		return ""
	}
	return "[voice_affect: " + string(data) + "] "
}

// IsDeepResearch reports whether the raw transcript asks for deep research.
// Matching is case-folded; an empty keyword never matches.
func IsDeepResearch(raw, keyword string) bool {
	if keyword == "" {
		return false
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(raw), fold.String(keyword))
}
