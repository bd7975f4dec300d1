package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Renderer  RendererConfig
	Slots     SlotConfig
	Mapper    MapperConfig
	Sanitize  SanitizeConfig
	LLM       LLMConfig
	Jobs      JobsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls the light HTTP tier and the blocked-response
// classifier shared by both tiers.
type FetchConfig struct {
	// Timeout is the deadline for one light fetch attempt.
	Timeout time.Duration // default: 10s

	// MinContent is the visible-text length below which a 2xx response
	// is classified as blocked.
	MinContent int // default: 500

	// BlockedMarkers are case-insensitive phrases that classify a body
	// as a bot challenge. Empty list keeps the built-in defaults.
	BlockedMarkers []string

	// AlwaysBrowserHosts lists host suffixes that skip the HTTP tier
	// entirely.
	AlwaysBrowserHosts []string // default: ["theknot.com", "weddingwire.com"]

	// UserAgent is sent on light fetches.
	UserAgent string
}

// RendererConfig controls the per-session headless browser.
type RendererConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavTimeout is the max time for navigation plus the DOM-stable wait.
	NavTimeout time.Duration // default: 45s

	// SettleDelay is the pause after the scroll pass before HTML capture.
	// TravelSettleDelay applies to travel/accommodation pages, which load
	// hotel widgets late.
	SettleDelay       time.Duration // default: 2s
	TravelSettleDelay time.Duration // default: 3s

	// Viewport bounds for the per-session randomized window size.
	ViewportMinWidth  int // default: 1200
	ViewportMaxWidth  int // default: 1920
	ViewportMinHeight int // default: 800
	ViewportMaxHeight int // default: 1080

	// BlockedResourceTypes lists resource types the hijacker aborts.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// SlotConfig controls how many concurrent browser processes the service
// allows across scrape sessions.
type SlotConfig struct {
	// Min is the slot floor kept even under memory pressure.
	Min int // default: 1

	// HardMax is the absolute maximum number of concurrent browsers.
	HardMax int // default: 4

	// MemThreshold is the heap memory fraction (0.0-1.0) above which the
	// governor shrinks the slot target.
	MemThreshold float64 // default: 0.9
}

// MapperConfig controls subpage discovery.
type MapperConfig struct {
	// MaxSubpages caps how many subpages one scrape fetches.
	MaxSubpages int // default: 8

	// SitemapProbe enables the sitemap.xml/robots.txt fallback on
	// unrecognized hosts.
	SitemapProbe bool // default: true
}

// SanitizeConfig sets the per-kind and total character budgets.
type SanitizeConfig struct {
	// FullTextBudget is the rune cap on the assembled extraction payload.
	FullTextBudget int // default: 30000

	// Per-kind extraction caps, in runes.
	TravelCap int // default: 8000
	FAQCap    int // default: 5000
	MainCap   int // default: 6000
	OtherCap  int // default: 5000
}

// LLMConfig controls the extraction model client.
type LLMConfig struct {
	// APIKey authenticates against the provider. Extraction degrades to
	// heuristics-only when empty.
	APIKey string

	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL string // default: "https://api.openai.com/v1"

	// Model is the chat-completions model name.
	Model string // default: "gpt-4o-mini"

	// MaxTokens caps the completion size.
	MaxTokens int // default: 2000

	// Timeout bounds one extraction call.
	Timeout time.Duration // default: 60s

	// PromptBudget is the rune cap on page text included in the prompt.
	PromptBudget int // default: 35000
}

// JobsConfig controls async scrape execution.
type JobsConfig struct {
	// MaxConcurrent bounds simultaneously running scrape jobs.
	MaxConcurrent int // default: 3
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the scrape response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	// Zero disables caching.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("USHER_HOST", "0.0.0.0"),
			Port: envIntOr("USHER_PORT", 8080),
			Mode: envOr("USHER_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:            envDurationOr("USHER_FETCH_TIMEOUT", 10*time.Second),
			MinContent:         envIntOr("USHER_FETCH_MIN_CONTENT", 500),
			BlockedMarkers:     envSliceOr("USHER_FETCH_BLOCKED_MARKERS", nil),
			AlwaysBrowserHosts: envSliceOr("USHER_ALWAYS_BROWSER_HOSTS", []string{"theknot.com", "weddingwire.com"}),
			UserAgent:          envOr("USHER_USER_AGENT", ""),
		},
		Renderer: RendererConfig{
			Headless:          envBoolOr("USHER_HEADLESS", true),
			NoSandbox:         envBoolOr("USHER_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("USHER_BROWSER_BIN"),
			NavTimeout:        envDurationOr("USHER_NAV_TIMEOUT", 45*time.Second),
			SettleDelay:       envDurationOr("USHER_SETTLE_DELAY", 2*time.Second),
			TravelSettleDelay: envDurationOr("USHER_TRAVEL_SETTLE_DELAY", 3*time.Second),
			ViewportMinWidth:  envIntOr("USHER_VIEWPORT_MIN_WIDTH", 1200),
			ViewportMaxWidth:  envIntOr("USHER_VIEWPORT_MAX_WIDTH", 1920),
			ViewportMinHeight: envIntOr("USHER_VIEWPORT_MIN_HEIGHT", 800),
			ViewportMaxHeight: envIntOr("USHER_VIEWPORT_MAX_HEIGHT", 1080),
			BlockedResourceTypes: envSliceOr("USHER_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Slots: SlotConfig{
			Min:          envIntOr("USHER_SLOTS_MIN", 1),
			HardMax:      envIntOr("USHER_SLOTS_MAX", 4),
			MemThreshold: envFloatOr("USHER_SLOTS_MEM_THRESHOLD", 0.9),
		},
		Mapper: MapperConfig{
			MaxSubpages:  envIntOr("USHER_MAX_SUBPAGES", 8),
			SitemapProbe: envBoolOr("USHER_SITEMAP_PROBE", true),
		},
		Sanitize: SanitizeConfig{
			FullTextBudget: envIntOr("USHER_FULL_TEXT_BUDGET", 30000),
			TravelCap:      envIntOr("USHER_TRAVEL_CAP", 8000),
			FAQCap:         envIntOr("USHER_FAQ_CAP", 5000),
			MainCap:        envIntOr("USHER_MAIN_CAP", 6000),
			OtherCap:       envIntOr("USHER_OTHER_CAP", 5000),
		},
		LLM: LLMConfig{
			APIKey:       os.Getenv("USHER_LLM_API_KEY"),
			BaseURL:      envOr("USHER_LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:        envOr("USHER_LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:    envIntOr("USHER_LLM_MAX_TOKENS", 2000),
			Timeout:      envDurationOr("USHER_LLM_TIMEOUT", 60*time.Second),
			PromptBudget: envIntOr("USHER_LLM_PROMPT_BUDGET", 35000),
		},
		Jobs: JobsConfig{
			MaxConcurrent: envIntOr("USHER_JOBS_CONCURRENT", 3),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("USHER_AUTH_ENABLED", true),
			APIKeys: envSliceOr("USHER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("USHER_RATE_RPS", 5.0),
			Burst:             envIntOr("USHER_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("USHER_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("USHER_LOG_LEVEL", "info"),
			Format: envOr("USHER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
