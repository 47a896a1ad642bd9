// Package langdetect identifies the language of short texts.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// MinWords is the shortest text Same will judge; shorter texts are too
// ambiguous to compare.
const MinWords = 4

var languages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
}

var detector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
})

// Detect returns the ISO 639-1 code and English name of the language, or
// "auto" and "" when it cannot be determined.
func Detect(text string) (code, name string) {
	lang, ok := detector().DetectLanguageOf(text)
	if !ok {
		return "auto", ""
	}
	return strings.ToLower(lang.IsoCode639_1().String()), lang.String()
}

// Same reports whether a and b are in the same language. It returns true
// when either text is shorter than MinWords or cannot be classified.
func Same(a, b string) bool {
	if len(strings.Fields(a)) < MinWords || len(strings.Fields(b)) < MinWords {
		return true
	}
	ca, _ := Detect(a)
	cb, _ := Detect(b)
	if ca == "auto" || cb == "auto" {
		return true
	}
	return ca == cb
}
