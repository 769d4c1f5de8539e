package doccontext

import (
	"strings"
	"unicode/utf8"
)

const sampleChars = 1000

// Stats describes extracted text for the debug-extraction view.
type Stats struct {
	SectionCount int    `json:"section_count"`
	CharCount    int    `json:"char_count"`
	WordCount    int    `json:"word_count"`
	Tokens       int    `json:"token_estimate"`
	Sample       string `json:"text_sample"`
}

// Summarize counts marker occurrences, characters and words in content.
// SectionCount counts every "--- SECTION:" occurrence, well-formed or not.
func Summarize(content string) Stats {
	sample := content
	if utf8.RuneCountInString(sample) > sampleChars {
		sample = string([]rune(sample)[:sampleChars]) + TruncatedMarker
	}
	words := len(strings.Fields(content))
	return Stats{
		SectionCount: strings.Count(content, strings.TrimSuffix(SectionPrefix, " ")),
		CharCount:    utf8.RuneCountInString(content),
		WordCount:    words,
		Tokens:       estimateTokens(words),
		Sample:       sample,
	}
}

// estimateTokens approximates model tokens at ~1.33 per English word.
func estimateTokens(words int) int {
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*1.33), 1)
}
