package renderer

import (
	"time"

	"github.com/go-rod/rod"
)

// maxScrollSteps bounds the pass on very tall pages (endless photo strips).
const maxScrollSteps = 8

// scrollPass walks the page in viewport-sized steps to the bottom and back
// to the top. Wedding platforms lazy-load schedule cards and hotel widgets
// on scroll, so skipping this loses exactly the content worth extracting.
// Best-effort: a failed step leaves the page where it is.
func scrollPass(p *rod.Page) {
	res, err := p.Eval(`() => ({h: document.body ? document.body.scrollHeight : 0, v: window.innerHeight})`)
	if err != nil {
		return
	}
	scrollHeight := res.Value.Get("h").Int()
	viewport := res.Value.Get("v").Int()
	if viewport <= 0 || scrollHeight <= viewport {
		return
	}

	steps := scrollHeight / viewport
	if steps > maxScrollSteps {
		steps = maxScrollSteps
	}

	for i := 0; i < steps; i++ {
		// Mouse.Scroll gives pixel-level scrolling like a real wheel.
		if err := p.Mouse.Scroll(0, float64(viewport), 0); err != nil {
			break
		}
		// Brief pause between steps to let lazy-loaded content trigger.
		time.Sleep(100 * time.Millisecond)
	}

	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
	time.Sleep(100 * time.Millisecond)
}
