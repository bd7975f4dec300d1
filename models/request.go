package models

// ScrapeRequest is the payload for POST /api/v1/scrape and
// POST /api/v1/scrape/async.
type ScrapeRequest struct {
	// URL is the couple's wedding website. Required.
	URL string `json:"url" binding:"required,url"`

	// Timeout is the maximum duration in seconds for the entire scrape
	// (acquisition + sanitization + extraction).
	// Default: 90. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`

	// SkipCache bypasses the scrape-result cache for this request.
	// Default: false.
	SkipCache bool `json:"skip_cache,omitempty"`

	// SkipExtraction returns heuristic fields only, without calling the
	// LLM. Useful for previews and for sites scraped repeatedly.
	// Default: false.
	SkipExtraction bool `json:"skip_extraction,omitempty"`

	// WebhookURL, when set on an async scrape, receives a signed
	// scrape.completed or scrape.failed event.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs webhook deliveries for this job.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 90
	}
}

// ImportRequest is the payload for POST /api/v1/import. It scrapes the
// site and persists the result through the wedding store.
type ImportRequest struct {
	URL string `json:"url" binding:"required,url"`

	// WeddingID is the idempotency key for persistence. When empty the
	// normalized source URL is used.
	WeddingID string `json:"wedding_id,omitempty"`

	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// Defaults applies default values to unset fields.
func (r *ImportRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 90
	}
}

// MapRequest is the payload for POST /api/v1/map. It previews platform
// detection and subpage discovery without running extraction.
type MapRequest struct {
	URL string `json:"url" binding:"required,url"`

	// Timeout is the maximum duration in seconds for acquiring the main
	// page. Default: 45. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// Defaults applies default values to unset fields.
func (r *MapRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 45
	}
}
