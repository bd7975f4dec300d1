package engine

import "context"

// Tier identifies which acquisition tier produced a result.
type Tier int

const (
	// TierHTTP is the light tier: one plain HTTP request with a Chrome
	// TLS fingerprint, no JavaScript.
	TierHTTP Tier = iota

	// TierBrowser is the heavy tier: a stealth-configured headless
	// browser render.
	TierBrowser
)

func (t Tier) String() string {
	return [...]string{"http", "browser"}[t]
}

// Engine is one way of turning a URL into page HTML.
type Engine interface {
	// Name returns the engine identifier ("http", "browser").
	Name() string

	// Fetch retrieves the page. Implementations return a FetchResult for
	// any HTTP response they received, including 4xx/5xx, so the caller
	// can classify it; they return an error only when no response was
	// obtained at all.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetchResult is the raw outcome of one page acquisition.
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string

	// Blocked and BlockReason are set by the acquirer after
	// classification, not by engines.
	Blocked     bool
	BlockReason string

	Via Tier
}
