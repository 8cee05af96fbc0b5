package chunker

import "strings"

// EstimateTokens gives a rough token count from the word count, at about
// 1.33 tokens per English word. Any non-empty text counts as at least one.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		if text == "" {
			return 0
		}
		return 1
	}
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
