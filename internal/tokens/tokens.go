// Package tokens approximates LLM token counts.
package tokens

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	tokensPerWord = 1.3
	charsPerToken = 4.0
)

// Estimate returns the larger of two heuristics: words x 1.3 and
// characters / 4, each rounded up. It never under-counts relative to
// either heuristic.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	words := float64(len(strings.Fields(text)))
	chars := float64(utf8.RuneCountInString(text))

	byWords := int(math.Ceil(words * tokensPerWord))
	byChars := int(math.Ceil(chars / charsPerToken))
	return max(byWords, byChars)
}
