package sitemap

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/usherhq/usher/models"
)

// Subpage is one discovered page of a wedding site.
type Subpage struct {
	URL  string
	Kind models.PageKind

	// Skip marks pages that are recorded but never fetched: registries
	// and photo galleries carry no extractable wedding data, only noise.
	Skip bool

	// Probed marks pages that were guessed (known-path table, sitemap)
	// rather than discovered as links. Platforms serve the main page or a
	// soft 404 for wrong guesses, so probed pages get a similarity check
	// after fetching.
	Probed bool
}

// Config carries the platform knowledge the mapper runs on. Tables are
// injected rather than read from package state so tests can substitute
// minimal ones.
type Config struct {
	// MaxSubpages caps both the fetchable and the skipped lists.
	MaxSubpages int

	// SitemapProbe enables the sitemap.xml/robots.txt fallback for hosts
	// with no known-path table.
	SitemapProbe bool

	// PlatformHosts maps host suffixes to platforms.
	PlatformHosts map[string]Platform

	// KnownPaths are per-platform path suffixes probed when nav
	// discovery finds nothing.
	KnownPaths map[Platform][]string
}

// DefaultConfig returns the production tables.
func DefaultConfig() Config {
	return Config{
		MaxSubpages:   8,
		SitemapProbe:  true,
		PlatformHosts: defaultPlatformHosts(),
		KnownPaths:    defaultKnownPaths(),
	}
}

// Keyword vocabularies for classifying nav links and path segments.
var (
	travelTokens   = []string{"travel", "accommodation", "hotel", "lodging", "stay", "getting-there", "things-to-do"}
	faqTokens      = []string{"faq", "q-a", "q&a", "question"}
	scheduleTokens = []string{"schedule", "event", "itinerary", "weekend", "timeline"}
	registryTokens = []string{"registry", "gift"}
	galleryTokens  = []string{"photo", "gallery"}
	otherTokens    = []string{"rsvp", "story", "party", "ceremony", "reception", "detail", "venue", "wedding"}
)

// kindWeight orders discovered pages so the subpage cap keeps the ones
// with the most extractable data.
var kindWeight = map[models.PageKind]int{
	models.KindTravel:   0,
	models.KindFAQ:      1,
	models.KindSchedule: 2,
	models.KindOther:    3,
	models.KindRegistry: 4,
}

// Mapper discovers the relevant subpages of a wedding website.
type Mapper struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Mapper.
func New(cfg Config, logger *slog.Logger) *Mapper {
	if cfg.MaxSubpages <= 0 {
		cfg.MaxSubpages = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

// Detect returns the platform for a hostname.
func (m *Mapper) Detect(host string) Platform {
	host = strings.ToLower(host)
	for suffix, platform := range m.cfg.PlatformHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return platform
		}
	}
	return PlatformGeneric
}

// Discover finds subpages of the site whose main page is baseURL, in three
// stages: navigation links in the main page HTML, then the platform's
// known-path table, then (generic hosts only) a sitemap probe. Results are
// ordered by kind priority and capped; skipped kinds do not consume cap.
func (m *Mapper) Discover(ctx context.Context, baseURL, html string) []Subpage {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	pages := m.navLinks(base, html)

	if len(pages) == 0 {
		platform := m.Detect(base.Hostname())
		if paths, ok := m.cfg.KnownPaths[platform]; ok {
			pages = knownPathPages(base, paths)
			m.log.Info("nav discovery empty, using platform paths",
				"platform", platform, "url", baseURL, "paths", len(pages))
		} else if m.cfg.SitemapProbe {
			pages = m.probeSitemaps(ctx, base)
			if len(pages) > 0 {
				m.log.Info("nav discovery empty, sitemap probe found pages",
					"url", baseURL, "pages", len(pages))
			}
		}
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return kindWeight[pages[i].Kind] < kindWeight[pages[j].Kind]
	})

	var fetch, skip []Subpage
	for _, p := range pages {
		if p.Skip {
			if len(skip) < m.cfg.MaxSubpages {
				skip = append(skip, p)
			}
			continue
		}
		if len(fetch) < m.cfg.MaxSubpages {
			fetch = append(fetch, p)
		}
	}
	return append(fetch, skip...)
}

// navLinks extracts keyword-matching same-site links from the nav and
// header containers of the main page.
func (m *Mapper) navLinks(base *url.URL, html string) []Subpage {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		m.log.Debug("nav discovery: html parse failed", "error", err)
		return nil
	}

	const navSelector = `nav a[href], header a[href], [role="navigation"] a[href], [class*="nav"] a[href], [class*="menu"] a[href]`

	baseNorm := normalizeURL(base)
	seen := make(map[string]struct{})
	var out []Subpage

	doc.Find(navSelector).Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		text := strings.TrimSpace(s.Text())
		if len(text) > 50 {
			// Nav labels are short; long anchors are body prose.
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}
		if !underBase(base, resolved) {
			return
		}

		norm := normalizeURL(resolved)
		if norm == baseNorm {
			return
		}

		kind, skipPage, ok := classifyToken(lastSegment(resolved.Path))
		if !ok {
			kind, skipPage, ok = classifyToken(text)
		}
		if !ok {
			return
		}

		if _, dup := seen[norm]; dup {
			return
		}
		seen[norm] = struct{}{}
		out = append(out, Subpage{URL: norm, Kind: kind, Skip: skipPage})
	})

	return out
}

// knownPathPages builds subpage URLs from a platform path table.
func knownPathPages(base *url.URL, paths []string) []Subpage {
	root := normalizeURL(base)
	out := make([]Subpage, 0, len(paths))
	for _, suffix := range paths {
		kind, skipPage, ok := classifyToken(suffix)
		if !ok {
			kind = models.KindOther
		}
		out = append(out, Subpage{
			URL:    root + "/" + suffix,
			Kind:   kind,
			Skip:   skipPage,
			Probed: true,
		})
	}
	return out
}

// classifyToken maps a path segment or nav label to a page kind. The skip
// flag marks registry and gallery pages.
func classifyToken(s string) (models.PageKind, bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false, false
	}
	for _, t := range travelTokens {
		if strings.Contains(s, t) {
			return models.KindTravel, false, true
		}
	}
	for _, t := range faqTokens {
		if strings.Contains(s, t) {
			return models.KindFAQ, false, true
		}
	}
	for _, t := range scheduleTokens {
		if strings.Contains(s, t) {
			return models.KindSchedule, false, true
		}
	}
	for _, t := range registryTokens {
		if strings.Contains(s, t) {
			return models.KindRegistry, true, true
		}
	}
	for _, t := range galleryTokens {
		if strings.Contains(s, t) {
			return models.KindOther, true, true
		}
	}
	for _, t := range otherTokens {
		if strings.Contains(s, t) {
			return models.KindOther, false, true
		}
	}
	return "", false, false
}

// underBase reports whether cand lives under the couple site's base path.
// Platform sites host thousands of couples; links outside the base path
// belong to other couples or to the platform itself.
func underBase(base, cand *url.URL) bool {
	basePath := strings.TrimRight(base.EscapedPath(), "/")
	if basePath == "" {
		return true
	}
	return strings.HasPrefix(cand.EscapedPath(), basePath+"/")
}

// normalizeURL strips fragments, queries and trailing slashes so the same
// page discovered twice dedupes.
func normalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	c.Path = strings.TrimRight(c.Path, "/")
	c.RawPath = ""
	return c.String()
}

// lastSegment returns the final path segment ("/us/a-and-b/travel" → "travel").
func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// ── sitemap probe ────────────────────────────────────────────────────────

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// probeSitemaps is the last-resort discovery path for self-hosted sites
// whose nav is rendered client-side: sitemap.xml plus any Sitemap:
// directives in robots.txt, filtered down to keyword-matching pages.
func (m *Mapper) probeSitemaps(ctx context.Context, base *url.URL) []Subpage {
	origin := base.Scheme + "://" + base.Host

	locs := m.fetchSitemap(ctx, origin+"/sitemap.xml", 0)
	for _, sm := range m.robotsSitemaps(ctx, origin+"/robots.txt") {
		locs = append(locs, m.fetchSitemap(ctx, sm, 0)...)
	}

	seen := make(map[string]struct{})
	var out []Subpage
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil {
			continue
		}
		if !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		kind, skipPage, ok := classifyToken(lastSegment(u.Path))
		if !ok {
			continue
		}
		norm := normalizeURL(u)
		if norm == normalizeURL(base) {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, Subpage{URL: norm, Kind: kind, Skip: skipPage, Probed: true})
	}
	return out
}

// fetchSitemap fetches and parses one sitemap URL. Index files recurse one
// level to keep the probe bounded.
func (m *Mapper) fetchSitemap(ctx context.Context, sitemapURL string, depth int) []string {
	if depth > 1 {
		return nil
	}

	body := m.fetchSmall(ctx, sitemapURL, 5<<20)
	if body == nil {
		return nil
	}

	// Try parsing as sitemap index first.
	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var urls []string
		for _, s := range idx.Sitemaps {
			if s.Loc != "" {
				urls = append(urls, m.fetchSitemap(ctx, s.Loc, depth+1)...)
			}
		}
		return urls
	}

	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		return nil
	}
	urls := make([]string, 0, len(us.URLs))
	for _, u := range us.URLs {
		if u.Loc != "" {
			urls = append(urls, u.Loc)
		}
	}
	return urls
}

// robotsSitemaps extracts Sitemap: directives from robots.txt.
func (m *Mapper) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body := m.fetchSmall(ctx, robotsURL, 1<<20)
	if body == nil {
		return nil
	}

	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > len("sitemap:") && strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			if sm := strings.TrimSpace(line[len("sitemap:"):]); sm != "" {
				sitemaps = append(sitemaps, sm)
			}
		}
	}
	return sitemaps
}

// fetchSmall GETs a URL with a size cap, returning nil on any failure.
func (m *Mapper) fetchSmall(ctx context.Context, rawURL string, limit int64) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil
	}
	return body
}
