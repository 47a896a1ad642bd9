package app

import (
	"testing"

	"go.aimuz.me/murmur/internal/types"
)

func TestBuildMessage(t *testing.T) {
	emotions := []types.EmotionScore{
		{Name: "Interest", Score: 0.62},
		{Name: "Confusion", Score: 0.31},
	}

	tests := []struct {
		name     string
		text     string
		emotions []types.EmotionScore
		hint     string
		want     string
	}{
		{
			name: "plain",
			text: "what is a monad",
			want: "what is a monad",
		},
		{
			name:     "affect prefix",
			text:     "what is a monad",
			emotions: emotions,
			want:     `[voice_affect: {"source":"hume_prosody","scores":{"Confusion":0.31,"Interest":0.62}}] what is a monad`,
		},
		{
			name: "hint collapsed and joined",
			text: "what is a monad",
			hint: "  Answer\n\tbriefly.  ",
			want: "what is a monad Answer briefly.",
		},
		{
			name: "no double space before hint",
			text: "what is a monad ",
			hint: "Answer briefly.",
			want: "what is a monad Answer briefly.",
		},
		{
			name: "blank hint ignored",
			text: "what is a monad",
			hint: " \n ",
			want: "what is a monad",
		},
		{
			name:     "prefix and hint",
			text:     "hi",
			emotions: emotions[:1],
			hint:     "Be short.",
			want:     `[voice_affect: {"source":"hume_prosody","scores":{"Interest":0.62}}] hi Be short.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMessage(tt.text, tt.emotions, tt.hint); got != tt.want {
				t.Errorf("BuildMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDeepResearch(t *testing.T) {
	tests := []struct {
		raw     string
		keyword string
		want    bool
	}{
		{"please research quantum dots", "research", true},
		{"RESEARCH this", "research", true},
		{"Researching is fun", "research", true},
		{"look into quantum dots", "research", false},
		{"research", "", false},
	}

	for _, tt := range tests {
		if got := IsDeepResearch(tt.raw, tt.keyword); got != tt.want {
			t.Errorf("IsDeepResearch(%q, %q) = %v, want %v", tt.raw, tt.keyword, got, tt.want)
		}
	}
}
