package sanitize

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// stripSelectors remove elements that never carry wedding data: scripts,
// consent machinery, overlays, embedded registry widgets. Applied before
// any per-kind extraction runs.
const stripSelectors = `script, style, noscript, svg, iframe, template,
	footer, aside,
	[class*="cookie"], [id*="cookie"],
	[class*="consent"], [id*="consent"],
	[class*="gdpr"],
	[class*="modal"], [class*="popup"], [class*="overlay"],
	[class*="sidebar"],
	[class*="registry-widget"], [class*="registry-item"],
	[role="dialog"]`

var stripSel = mustStripSelectors()

func mustStripSelectors() cascadia.SelectorGroup {
	sel, err := cascadia.ParseGroup(stripSelectors)
	if err != nil {
		panic("sanitize: invalid strip selectors: " + err.Error())
	}
	return sel
}

// stripNoise removes all strip-selector matches from rawHTML and renders the
// document back to a string. On parse failure the input is returned unchanged
// so downstream extraction still has something to work with.
func stripNoise(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, node := range cascadia.QueryAll(doc, stripSel) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return rawHTML
	}
	return buf.String()
}
