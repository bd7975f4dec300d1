package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/sitemap"
)

// couplePatternURL lists the URL shapes the platforms mint for couple sites,
// most specific first.
var couplePatternURL = []*regexp.Regexp{
	regexp.MustCompile(`/us/([a-z]+)-and-([a-z]+)`),
	regexp.MustCompile(`/wedding/([a-z]+)-and-([a-z]+)`),
	regexp.MustCompile(`/wedding/([a-z]+)-([a-z]+)`),
	regexp.MustCompile(`/([a-z]+)-and-([a-z]+)`),
	regexp.MustCompile(`/([a-z]+)-([a-z]+)-wedding`),
}

// coupleTitleRe matches "Sarah & Tom", "Sarah and Tom", "SARAH + TOM" at the
// start of a title segment, optionally prefixed with "The wedding of".
var coupleTitleRe = regexp.MustCompile(`(?i)^(?:the\s+wedding\s+of\s+)?([a-z][a-z'.-]*)\s*(?:&|\+|and)\s+([a-z][a-z'.-]*)`)

// nameStopWords are title words that look like names to the regex but are
// not ("Save & The Date", "Home and Welcome").
var nameStopWords = map[string]struct{}{
	"the": {}, "our": {}, "we": {}, "us": {}, "wedding": {}, "website": {},
	"home": {}, "welcome": {}, "save": {}, "date": {}, "mr": {}, "mrs": {},
	"rsvp": {}, "registry": {}, "travel": {}, "faq": {},
}

var registryHostSuffixes = []string{
	"amazon.com", "target.com", "crateandbarrel.com", "potterybarn.com",
	"williams-sonoma.com", "bedbathandbeyond.com", "macys.com",
	"honeyfund.com", "blueprintregistry.com", "myregistry.com",
}

// heuristicExtract pulls the wedding facts that need no model call: couple
// names from title metadata or the URL itself, the date from JSON-LD or
// page metadata, the ceremony venue from JSON-LD, and registry/RSVP links
// from discovery. It runs on every scrape and is the whole result when the
// model is unavailable.
func heuristicExtract(mainHTML, baseURL string, subs []sitemap.Subpage) *models.WeddingData {
	data := &models.WeddingData{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(mainHTML))
	if err != nil {
		doc = nil
	}

	if doc != nil {
		if p1, p2, ok := coupleFromTitles(doc); ok {
			data.Partner1Name, data.Partner2Name = p1, p2
		}
	}
	if data.Partner1Name == "" {
		if p1, p2, ok := coupleFromURL(baseURL); ok {
			data.Partner1Name, data.Partner2Name = p1, p2
		}
	}

	if doc != nil {
		applyJSONLD(doc, data)
		if data.WeddingDate == "" {
			data.WeddingDate = dateFromDoc(doc)
		}
		registryFromLinks(doc, baseURL, data)
	}

	linksFromDiscovery(subs, data)
	return data
}

// coupleFromTitles tries og:title, <title> and the first h1, splitting off
// separator suffixes ("Sarah & Tom | The Knot") before matching.
func coupleFromTitles(doc *goquery.Document) (string, string, bool) {
	var candidates []string
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		candidates = append(candidates, og)
	}
	candidates = append(candidates, doc.Find("title").First().Text())
	candidates = append(candidates, doc.Find("h1").First().Text())

	for _, c := range candidates {
		for _, segment := range splitTitle(c) {
			if p1, p2, ok := coupleFromText(segment); ok {
				return p1, p2, true
			}
		}
	}
	return "", "", false
}

func splitTitle(title string) []string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	for _, sep := range []string{" | ", " — ", " – ", " - "} {
		title = strings.ReplaceAll(title, sep, "\x00")
	}
	return strings.Split(title, "\x00")
}

func coupleFromText(s string) (string, string, bool) {
	m := coupleTitleRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	p1 := cleanName(m[1])
	p2 := cleanName(m[2])
	if p1 == "" || p2 == "" {
		return "", "", false
	}
	return p1, p2, true
}

func cleanName(s string) string {
	s = strings.TrimSuffix(s, "'s")
	s = strings.TrimSuffix(s, "’s")
	s = strings.Trim(s, ".-")
	if len(s) < 2 {
		return ""
	}
	if _, stop := nameStopWords[strings.ToLower(s)]; stop {
		return ""
	}
	return capitalize(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// coupleFromURL recovers names from the site path ("/us/sarah-and-tom").
func coupleFromURL(rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	path := strings.ToLower(u.Path)

	for _, re := range couplePatternURL {
		m := re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		p1 := cleanName(m[1])
		p2 := cleanName(m[2])
		if p1 == "" || p2 == "" {
			continue
		}
		return p1, p2, true
	}
	return "", "", false
}

// applyJSONLD reads schema.org Event objects embedded by the platforms and
// fills date and ceremony venue.
func applyJSONLD(doc *goquery.Document, data *models.WeddingData) {
	var events []map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		collectLDEvents(v, &events)
	})

	for _, ev := range events {
		if data.WeddingDate == "" {
			if start, ok := ev["startDate"].(string); ok {
				if iso, parsed := ParseDate(start); parsed {
					data.WeddingDate = iso
				}
			}
		}
		if loc, ok := ev["location"].(map[string]any); ok {
			if data.CeremonyVenueName == "" {
				if name, ok := loc["name"].(string); ok {
					data.CeremonyVenueName = strings.TrimSpace(name)
				}
			}
			if data.CeremonyVenueAddress == "" {
				data.CeremonyVenueAddress = ldAddress(loc["address"])
			}
		}
	}
}

func collectLDEvents(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if isLDEventType(t["@type"]) {
			*out = append(*out, t)
		}
		for _, key := range []string{"@graph", "mainEntity", "event"} {
			if sub, ok := t[key]; ok {
				collectLDEvents(sub, out)
			}
		}
	case []any:
		for _, item := range t {
			collectLDEvents(item, out)
		}
	}
}

func isLDEventType(v any) bool {
	switch t := v.(type) {
	case string:
		lower := strings.ToLower(t)
		return strings.Contains(lower, "event") || lower == "wedding"
	case []any:
		for _, item := range t {
			if isLDEventType(item) {
				return true
			}
		}
	}
	return false
}

// ldAddress renders a schema.org address, which is either a plain string or
// a PostalAddress object.
func ldAddress(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
			if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// dateFromDoc scans metadata and headings for the first plausible date.
func dateFromDoc(doc *goquery.Document) string {
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if iso, parsed := ParseDate(dt); parsed {
			return iso
		}
	}

	var candidates []string
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		candidates = append(candidates, og)
	}
	if ogd, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		candidates = append(candidates, ogd)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		candidates = append(candidates, desc)
	}
	candidates = append(candidates, doc.Find("title").First().Text())
	doc.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
		candidates = append(candidates, s.Text())
		return i < 10
	})

	for _, c := range candidates {
		if iso, ok := ParseDate(c); ok {
			return iso
		}
	}
	return ""
}

// registryFromLinks finds links to external registry providers on the main
// page.
func registryFromLinks(doc *goquery.Document, baseURL string, data *models.WeddingData) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		if strings.EqualFold(resolved.Host, base.Host) {
			return
		}
		if !isRegistryHost(resolved.Host) && !strings.Contains(strings.ToLower(resolved.Path), "registry") {
			return
		}
		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		data.RegistryURLs = append(data.RegistryURLs, abs)
	})
}

func isRegistryHost(host string) bool {
	host = strings.ToLower(host)
	for _, suffix := range registryHostSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// linksFromDiscovery fills registry and RSVP URLs from mapped subpages.
func linksFromDiscovery(subs []sitemap.Subpage, data *models.WeddingData) {
	for _, sp := range subs {
		lower := strings.ToLower(sp.URL)
		if sp.Kind == models.KindRegistry {
			if !containsString(data.RegistryURLs, sp.URL) {
				data.RegistryURLs = append(data.RegistryURLs, sp.URL)
			}
			continue
		}
		if data.RSVPURL == "" && strings.Contains(lower, "rsvp") {
			data.RSVPURL = sp.URL
		}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
