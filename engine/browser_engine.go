package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a URL in the session's headless browser. It is
// injected by the coordinator to avoid a circular import (engine/ ->
// renderer/); each scrape session binds its own renderer instance.
type RenderFunc func(ctx context.Context, url string) (*FetchResult, error)

// BrowserEngine is the heavy acquisition tier. It delegates to the
// session-owned renderer via the injected callback.
type BrowserEngine struct {
	render RenderFunc
}

// NewBrowserEngine creates a BrowserEngine around the given render callback.
func NewBrowserEngine(render RenderFunc) *BrowserEngine {
	return &BrowserEngine{render: render}
}

func (e *BrowserEngine) Name() string { return "browser" }

func (e *BrowserEngine) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("browser: render func not configured")
	}
	result, err := e.render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	result.Via = TierBrowser
	return result, nil
}
