package sanitize

import (
	"math"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minMainContent is the minimum extracted text length for readability output
// to count as a success. Below it the block scorer takes over; wedding pages
// are often too sparse to look like articles.
const minMainContent = 80

// Signal weights for the block scorer.
const (
	wTextDensity = 3.0
	wLinkDensity = -2.0
	wTagHint     = 1.5
	wClassHint   = 1.0
	wTextLength  = 0.5
)

var positiveClassPatterns = []string{
	"content", "main", "body", "text", "detail", "info",
	"event", "schedule", "story", "wedding",
}

var negativeClassPatterns = []string{
	"sidebar", "nav", "menu", "footer", "header", "banner",
	"cookie", "social", "share", "modal", "popup", "widget",
	"ad", "promo", "related",
}

// mainText extracts the primary content of a page as markdown. Readability
// runs first; when it comes back thin the block scorer takes over; the full
// body text is the last resort so a page never sanitizes to nothing when it
// had visible text.
func (s *Sanitizer) mainText(rawHTML, sourceURL string) string {
	if content := s.readabilityText(rawHTML, sourceURL); content != "" {
		return content
	}

	if pruned := pruneBlocks(rawHTML); pruned != "" {
		if md, err := s.toMarkdown(pruned, sourceURL); err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md)
		}
	}

	return bodyText(rawHTML)
}

func (s *Sanitizer) readabilityText(rawHTML, sourceURL string) string {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return ""
	}
	if len(strings.TrimSpace(article.TextContent)) < minMainContent {
		return ""
	}

	md, err := s.toMarkdown(article.Content, sourceURL)
	if err != nil || strings.TrimSpace(md) == "" {
		return strings.TrimSpace(article.TextContent)
	}
	return strings.TrimSpace(md)
}

// pruneBlocks keeps the top-level blocks that score as content. Each block
// is scored on text density, link density, semantic tag, class/id signals
// and text length; blocks at or below zero are discarded as boilerplate.
func pruneBlocks(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	scope := doc.Find("body")
	if scope.Length() == 0 {
		return ""
	}

	// Descend single-child wrapper chains first; client-rendered sites nest
	// the whole page under one mount div, which would otherwise be scored
	// all-or-nothing.
	for scope.Children().Length() == 1 {
		scope = scope.Children()
	}

	var retained []string
	scope.Children().Each(func(_ int, el *goquery.Selection) {
		if scoreBlock(el) > 0 {
			if h, err := goquery.OuterHtml(el); err == nil {
				retained = append(retained, h)
			}
		}
	})

	if len(retained) == 0 {
		if h, err := scope.Html(); err == nil {
			return h
		}
		return ""
	}
	return strings.Join(retained, "\n")
}

func scoreBlock(el *goquery.Selection) float64 {
	outer, err := goquery.OuterHtml(el)
	if err != nil {
		return 0
	}

	text := strings.TrimSpace(el.Text())
	textLen := len(text)
	totalLen := len(outer)

	textDensity := 0.0
	if totalLen > 0 {
		textDensity = float64(textLen) / float64(totalLen)
	}

	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := 0.0
	if textLen > 0 {
		linkDensity = float64(linkTextLen) / float64(textLen)
	}

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagHint(el)*wTagHint +
		classHint(el)*wClassHint +
		math.Log10(float64(textLen)+1)*wTextLength
}

func tagHint(el *goquery.Selection) float64 {
	switch goquery.NodeName(el) {
	case "article", "main", "section":
		return 5.0
	case "nav", "footer", "aside", "header":
		return -5.0
	default:
		return 0.0
	}
}

func classHint(el *goquery.Selection) float64 {
	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)

	score := 0.0
	for _, pat := range positiveClassPatterns {
		if strings.Contains(combined, pat) {
			score += 3.0
			break
		}
	}
	for _, pat := range negativeClassPatterns {
		if strings.Contains(combined, pat) {
			score -= 3.0
			break
		}
	}
	return score
}

// bodyText returns the trimmed visible text of the document body.
func bodyText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return strings.TrimSpace(body.Text())
	}
	return strings.TrimSpace(doc.Text())
}
