package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Block reasons reported by the classifier.
const (
	ReasonStatus403   = "status_403"
	ReasonChallenge   = "challenge_marker"
	ReasonJSRequired  = "javascript_required"
	ReasonThinContent = "thin_content"
)

// DefaultBlockedMarkers are the challenge phrases seen across the wedding
// platforms and the CDNs fronting them (Akamai on The Knot, Cloudflare on
// self-hosted sites). Matching is case-insensitive.
var DefaultBlockedMarkers = []string{
	"access denied",
	"please enable javascript",
	"enable javascript and cookies",
	"checking your browser",
	"just a moment",
	"verify you are human",
	"verifying you are human",
	"attention required",
	"reference&#32;&#35;",
	"reference #1",
}

var (
	// Empty SPA root containers mean the light tier got a JS shell.
	reSPARoot = regexp.MustCompile(`<div id="(?:root|app|__next)">\s*</div>`)

	// <noscript> warnings that the page needs JavaScript.
	reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(?:enable|activate|turn on|requires?)\s+javascript`)
)

// Classifier decides whether a response is a bot-protection block rather
// than real page content.
type Classifier struct {
	minContent int
	markers    []string
}

// NewClassifier builds a Classifier. A nil or empty marker list keeps the
// built-in defaults; minContent <= 0 disables the thin-content check.
func NewClassifier(minContent int, markers []string) *Classifier {
	if len(markers) == 0 {
		markers = DefaultBlockedMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &Classifier{minContent: minContent, markers: lowered}
}

// Classify inspects a light-tier response. It reports whether the response
// is blocked and the reason. The thin-content check runs last because it
// walks the document.
func (c *Classifier) Classify(statusCode int, body string) (bool, string) {
	if statusCode == 403 {
		return true, ReasonStatus403
	}

	lower := strings.ToLower(body)
	for _, m := range c.markers {
		if strings.Contains(lower, m) {
			return true, ReasonChallenge
		}
	}

	if reSPARoot.MatchString(lower) || reNoscript.MatchString(lower) {
		return true, ReasonJSRequired
	}

	if c.minContent > 0 && len(visibleText(body)) < c.minContent {
		return true, ReasonThinContent
	}

	return false, ""
}

// ClassifyRendered inspects a browser-tier result. Rendered pages skip the
// thin-content and JS-shell checks: a sparse single-page wedding site is
// legitimately short once JavaScript has run.
func (c *Classifier) ClassifyRendered(statusCode int, body string) (bool, string) {
	if statusCode == 403 {
		return true, ReasonStatus403
	}
	lower := strings.ToLower(body)
	for _, m := range c.markers {
		if strings.Contains(lower, m) {
			return true, ReasonChallenge
		}
	}
	return false, ""
}

// visibleText extracts the text within <body>, stripping tags and
// <script>/<style>/<noscript> content.
func visibleText(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
