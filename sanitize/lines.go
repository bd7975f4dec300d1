package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Line-level noise patterns. Wedding platforms render icon fonts as bare
// ligature names ("favorite_border", "keyboard_arrow_down") and registry
// pages leak purchase chrome into the visible text.
var (
	iconGlyphRe  = regexp.MustCompile(`^[a-z_]+$`)
	bareNumberRe = regexp.MustCompile(`^[\d\s]+$`)
	barePriceRe  = regexp.MustCompile(`^\$[\d,]+\.?\d*$`)
)

var registryNoise = []string{
	"needs 1 of",
	"still needs",
	"add to cart",
	"add to registry",
	"buy now",
	"view gift",
}

var cookieHints = []string{
	"consent",
	"accept all",
	"privacy policy",
	"your experience",
	"browsing experience",
	"third-party",
	"third party",
}

// CleanLines applies the line-level cleaning rules to extracted text:
// whitespace runs collapse, noise lines drop, blank-line runs collapse to
// one. The rules are aggressive on purpose; anything they remove would only
// burn prompt budget.
func CleanLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
				blank = true
			}
			continue
		}
		if dropLine(collapsed) {
			continue
		}
		out = append(out, collapsed)
		blank = false
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func dropLine(line string) bool {
	if utf8.RuneCountInString(line) < 3 {
		return true
	}
	if len(line) < 30 && iconGlyphRe.MatchString(line) {
		return true
	}
	if bareNumberRe.MatchString(line) {
		return true
	}
	if barePriceRe.MatchString(line) {
		return true
	}

	lower := strings.ToLower(line)
	if len(line) > 100 && strings.Contains(lower, "cookie") && containsAny(lower, cookieHints) {
		return true
	}
	if strings.Contains(lower, "privacy") && strings.Contains(lower, "choices") {
		return true
	}
	if containsAny(lower, registryNoise) {
		return true
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TruncateRunes cuts s to at most max runes, always at a rune boundary and
// only from the suffix.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
