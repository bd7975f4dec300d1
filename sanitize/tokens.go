package sanitize

import "unicode/utf8"

// EstimateTokens approximates the token count of text without a tokenizer
// dependency: rune count / 3. English prose runs ~4 chars per token; the
// divisor of 3 over-estimates slightly, which is the safe direction for
// budget decisions.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
