package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// FingerprintDOM computes a SimHash over the element structure of an HTML
// document, ignoring text, attributes, and script/style noise. Wedding
// platforms tend to answer unknown paths with HTTP 200 and a site-branded
// "page not found" shell; comparing a probed page's structure against the
// main page catches those soft 404s where status codes cannot.
func FingerprintDOM(doc string) uint64 {
	tags := elementSequence(doc)
	if len(tags) == 0 {
		return 0
	}

	shingles := shingle(tags, 3)
	if len(shingles) == 0 {
		// Too few elements for 3-grams; hash the raw tag sequence instead.
		return Fingerprint(strings.Join(tags, " "))
	}
	return Fingerprint(strings.Join(shingles, " "))
}

// structuralNoise lists tags whose count varies run to run on the same page
// (analytics snippets, font loaders) and so would poison the comparison.
var structuralNoise = map[string]bool{
	"script":   true,
	"noscript": true,
	"style":    true,
	"link":     true,
	"meta":     true,
}

// elementSequence tokenizes doc and returns the opened element names in
// document order, with structural noise removed.
func elementSequence(doc string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	var tags []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); !structuralNoise[tag] {
				tags = append(tags, tag)
			}
		}
	}
}

// shingle builds overlapping n-gram tokens from tags so that local structure
// (not just the bag of tag names) feeds the fingerprint.
func shingle(tags []string, n int) []string {
	if len(tags) < n {
		return nil
	}
	out := make([]string, 0, len(tags)-n+1)
	for i := 0; i+n <= len(tags); i++ {
		out = append(out, strings.Join(tags[i:i+n], "_"))
	}
	return out
}
