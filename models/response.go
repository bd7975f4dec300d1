package models

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the scrape produced a result. Recovered
	// per-page and extraction failures keep Success true and surface in
	// Warnings.
	Success bool `json:"success"`

	// SourceURL is the normalized input URL.
	SourceURL string `json:"source_url,omitempty"`

	// Platform is the detected hosting platform ("zola", "theknot", ...,
	// or "generic").
	Platform string `json:"platform,omitempty"`

	// Data is the merged wedding record.
	Data *WeddingData `json:"data,omitempty"`

	// Provenance maps field names to the source that supplied the value.
	Provenance map[string]Provenance `json:"provenance,omitempty"`

	// Warnings lists recovered failures (skipped pages, degraded
	// extraction). Present only on partial results.
	Warnings []string `json:"warnings,omitempty"`

	// Pages summarizes every acquired page, including ones dropped as
	// duplicates.
	Pages []PageSummary `json:"pages,omitempty"`

	// PagesSkipped lists discovered subpages that are intentionally not
	// fetched (registry, photo galleries).
	PagesSkipped []string `json:"pages_skipped,omitempty"`

	// Tokens provides payload token estimates.
	Tokens TokenInfo `json:"tokens"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ImportResponse is the response for POST /api/v1/import.
type ImportResponse struct {
	Success   bool         `json:"success"`
	WeddingID string       `json:"wedding_id,omitempty"`
	Created   bool         `json:"created"`
	Data      *WeddingData `json:"data,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// MapResponse is the response for POST /api/v1/map.
type MapResponse struct {
	Success  bool         `json:"success"`
	Platform string       `json:"platform,omitempty"`
	Subpages []Subpage    `json:"subpages,omitempty"`
	Skipped  []string     `json:"skipped,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// Subpage is one discovered subpage in a map preview.
type Subpage struct {
	URL  string   `json:"url"`
	Kind PageKind `json:"kind"`
}

// TokenInfo provides token estimates for the assembled extraction payload.
type TokenInfo struct {
	// PayloadEstimate is the estimated token count of the text sent to
	// the model.
	PayloadEstimate int `json:"payload_estimate"`

	// PromptTokens and CompletionTokens are reported by the provider when
	// extraction ran.
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// AcquisitionMs is the time spent fetching and rendering pages.
	AcquisitionMs int64 `json:"acquisition_ms"`

	// SanitizeMs is the time spent extracting and cleaning page content.
	SanitizeMs int64 `json:"sanitize_ms"`

	// ExtractionMs is the time spent in the LLM call.
	ExtractionMs int64 `json:"extraction_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	SlotStats SlotStats `json:"slot_stats"`
	Version   string    `json:"version"`
}

// SlotStats reports browser-slot usage across scrape sessions.
type SlotStats struct {
	Target int `json:"target"`
	InUse  int `json:"in_use"`
	Max    int `json:"max"`
}
