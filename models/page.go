package models

// PageKind classifies a wedding-site page by the information it carries.
// The kind drives content extraction strategy and assembly priority.
type PageKind string

const (
	KindMain     PageKind = "main"
	KindTravel   PageKind = "travel"
	KindSchedule PageKind = "schedule"
	KindFAQ      PageKind = "faq"
	KindRegistry PageKind = "registry"
	KindOther    PageKind = "other"
)

// PageContent is one sanitized page ready for assembly into the
// extraction payload.
type PageContent struct {
	URL   string   `json:"url"`
	Kind  PageKind `json:"kind"`
	Text  string   `json:"text"`
	Chars int      `json:"chars"`
}

// PageSummary describes one acquired page in API responses, without the
// page text itself.
type PageSummary struct {
	URL     string   `json:"url"`
	Kind    PageKind `json:"kind"`
	Via     string   `json:"via"`
	Chars   int      `json:"chars"`
	Dropped string   `json:"dropped,omitempty"` // "duplicate", "soft_404" or "budget" when excluded
}

// ScrapeResult is the coordinator's output for one wedding website.
type ScrapeResult struct {
	SourceURL    string                `json:"source_url"`
	Platform     string                `json:"platform"`
	Data         WeddingData           `json:"data"`
	Provenance   map[string]Provenance `json:"provenance,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
	Pages        []PageSummary         `json:"pages"`
	PagesSkipped []string              `json:"pages_skipped,omitempty"`

	// FullTextChars is the rune count of the assembled extraction payload
	// after priority ordering and truncation.
	FullTextChars int `json:"full_text_chars"`

	Tokens TokenInfo  `json:"tokens"`
	Timing TimingInfo `json:"timing"`
}
