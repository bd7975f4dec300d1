package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// inlineLinkRe matches markdown inline links: [text](url)
var inlineLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// ConvertToCitations rewrites inline markdown links as reference-style
// citations with a trailing URL list. Hotel cards repeat the same booking
// URL many times; the reference form keeps every URL available to the model
// while paying for it once. Duplicate URLs share a reference number.
func ConvertToCitations(markdown string) string {
	urlToNum := make(map[string]int)
	var refs []string
	counter := 0

	result := inlineLinkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := inlineLinkRe.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		text, url := parts[1], parts[2]

		num, exists := urlToNum[url]
		if !exists {
			counter++
			num = counter
			urlToNum[url] = num
			refs = append(refs, fmt.Sprintf("[%d]: %s", num, url))
		}
		return fmt.Sprintf("[%s][%d]", text, num)
	})

	if len(refs) == 0 {
		return markdown
	}
	return result + "\n\n---\n" + strings.Join(refs, "\n")
}
