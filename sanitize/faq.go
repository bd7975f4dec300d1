package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractFAQPairs pulls question/answer pairs out of a FAQ page and renders
// them as Q:/A: lines. Four markup conventions cover the platforms:
// <details>/<summary> accordions, <dt>/<dd> lists, question/answer class
// pairs, and headings inside a faq container. Duplicate questions (the same
// accordion often appears twice for mobile and desktop) are dropped.
//
// Returns empty when no pairs are found; the caller falls back to generic
// extraction.
func extractFAQPairs(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	type pair struct{ q, a string }
	var pairs []pair
	seen := make(map[string]struct{})

	add := func(q, a string) {
		q = strings.Join(strings.Fields(q), " ")
		a = strings.Join(strings.Fields(a), " ")
		if q == "" || a == "" {
			return
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		pairs = append(pairs, pair{q, a})
	}

	doc.Find("details").Each(func(_ int, d *goquery.Selection) {
		q := d.Find("summary").First().Text()
		a := d.Contents().Not("summary").Text()
		add(q, a)
	})

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		add(dt.Text(), dt.NextFiltered("dd").Text())
	})

	doc.Find(`[class*="question"]`).Each(func(_ int, q *goquery.Selection) {
		a := q.NextFiltered(`[class*="answer"]`)
		if a.Length() == 0 {
			a = q.Next()
		}
		add(q.Text(), a.Text())
	})

	doc.Find(`[class*="faq"] h2, [class*="faq"] h3, [class*="faq"] h4`).Each(func(_ int, h *goquery.Selection) {
		add(h.Text(), h.Next().Text())
	})

	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(p.q)
		b.WriteString("\nA: ")
		b.WriteString(p.a)
	}
	return b.String()
}
