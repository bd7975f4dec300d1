package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// travelScoreThreshold is the minimum score a block must reach to count as a
// hotel/transport card. Travel pages are the one place where generic
// main-content extraction loses data (hotel cards look like boilerplate
// grids to readability), so they get their own scorer.
const travelScoreThreshold = 8

var travelKeywords = []string{
	"hotel", "room block", "shuttle", "airport", "accommodation",
	"lodging", "booking", "reserve", "guest rate", "group rate",
	"transportation", "parking", "directions", "venue",
}

var travelClassHints = []string{
	"travel", "hotel", "accommodation", "lodging", "stay", "transport",
}

var (
	phoneRe    = regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}`)
	addressRe  = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(?:\s\w+){0,4}\s+(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|plaza|place|pl)\b`)
	checkInRe  = regexp.MustCompile(`(?i)check[-\s]?in`)
	checkOutRe = regexp.MustCompile(`(?i)check[-\s]?out`)
)

// travelText extracts hotel and transport blocks from a travel page. Each
// candidate block is scored on keyword hits (+1 each), a phone number (+5),
// a street address (+5), paired check-in/check-out times (+10), and
// travel-ish class/id attributes (+3). Blocks at or above the threshold are
// kept; when a scoring block contains another scoring block, only the inner
// one survives so a page-level wrapper cannot swallow individual cards.
//
// Returns empty when nothing scores, in which case the caller falls back to
// generic main-content extraction.
func (s *Sanitizer) travelText(rawHTML, sourceURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var hitSels []*goquery.Selection
	hitNodes := make(map[*html.Node]struct{})

	doc.Find("section, article, div, li").Each(func(_ int, el *goquery.Selection) {
		if travelScore(el) >= travelScoreThreshold {
			hitSels = append(hitSels, el)
			hitNodes[el.Get(0)] = struct{}{}
		}
	})

	var blocks []string
	for _, el := range hitSels {
		if containsOtherHit(el.Get(0), hitNodes) {
			continue
		}
		fragment, err := goquery.OuterHtml(el)
		if err != nil {
			continue
		}
		md, err := s.toMarkdown(fragment, sourceURL)
		if err != nil || strings.TrimSpace(md) == "" {
			continue
		}
		blocks = append(blocks, strings.TrimSpace(md))
	}

	if len(blocks) == 0 {
		return ""
	}

	// Reference-style citations keep booking URLs in the payload without
	// repeating them inline in every hotel card.
	return ConvertToCitations(strings.Join(blocks, "\n\n"))
}

func travelScore(el *goquery.Selection) int {
	text := strings.ToLower(el.Text())
	if len(text) < 40 {
		return 0
	}

	score := 0
	for _, kw := range travelKeywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	if phoneRe.MatchString(text) {
		score += 5
	}
	if addressRe.MatchString(text) {
		score += 5
	}
	if checkInRe.MatchString(text) && checkOutRe.MatchString(text) {
		score += 10
	}

	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	hint := strings.ToLower(class + " " + id)
	for _, h := range travelClassHints {
		if strings.Contains(hint, h) {
			score += 3
			break
		}
	}
	return score
}

// containsOtherHit reports whether any descendant of n is itself a scoring
// block.
func containsOtherHit(n *html.Node, hits map[*html.Node]struct{}) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if subtreeHasHit(c, hits) {
			return true
		}
	}
	return false
}

func subtreeHasHit(n *html.Node, hits map[*html.Node]struct{}) bool {
	if _, ok := hits[n]; ok {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if subtreeHasHit(c, hits) {
			return true
		}
	}
	return false
}
