package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/models"
)

func testConfig() config.SanitizeConfig {
	return config.SanitizeConfig{
		FullTextBudget: 30000,
		TravelCap:      8000,
		FAQCap:         5000,
		MainCap:        6000,
		OtherCap:       5000,
	}
}

func testSanitizer(cfg config.SanitizeConfig) *Sanitizer {
	return New(cfg, nil)
}

func TestCleanLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short line dropped", "ok\nthis line stays", "this line stays"},
		{"icon glyph dropped", "favorite_border\nkeyboard_arrow_down\nreal content here", "real content here"},
		{"bare number dropped", "123\n12 34\nRoom 123 is reserved", "Room 123 is reserved"},
		{"bare price dropped", "$1,299.99\nThe rate is $199 per night", "The rate is $199 per night"},
		{"privacy choices dropped", "Your Privacy Choices\nWedding details below", "Wedding details below"},
		{"registry noise dropped", "Still needs 1 of 2\nAdd to Cart\nKitchenAid Mixer description text", "KitchenAid Mixer description text"},
		{"whitespace collapsed", "The   Grand\tHotel   awaits", "The Grand Hotel awaits"},
		{"blank runs collapsed", "first paragraph\n\n\n\nsecond paragraph", "first paragraph\n\nsecond paragraph"},
		{"trailing blanks trimmed", "only paragraph\n\n\n", "only paragraph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanLines(tt.in); got != tt.want {
				t.Errorf("CleanLines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanLines_CookieBoilerplate(t *testing.T) {
	long := "We use cookies and similar technologies to improve your browsing experience, analyze traffic, and personalize content across our pages."
	if len(long) <= 100 {
		t.Fatalf("test line must exceed 100 chars, has %d", len(long))
	}

	in := long + "\nShuttle leaves the hotel at 3pm"
	got := CleanLines(in)
	if strings.Contains(got, "cookies") {
		t.Errorf("cookie boilerplate survived: %q", got)
	}
	if !strings.Contains(got, "Shuttle leaves") {
		t.Errorf("real content dropped: %q", got)
	}

	// Short cookie mentions are legitimate content (dessert tables exist).
	short := "We will serve milk and cookies at midnight"
	if got := CleanLines(short); got != short {
		t.Errorf("short cookie line should survive, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hello"},
		{"zero", "hello", 0, ""},
		{"negative", "hello", -1, ""},
		{"multibyte boundary", "café latte", 4, "café"},
		{"emoji boundary", "ab🎉cd", 3, "ab🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncation split a rune: %q", got)
			}
		})
	}
}

func TestTruncateRunes_NeverSplitsRunes(t *testing.T) {
	s := strings.Repeat("héllo wörld 🎊 ", 50)
	for max := 0; max < 60; max++ {
		got := TruncateRunes(s, max)
		if !utf8.ValidString(got) {
			t.Fatalf("invalid UTF-8 at max=%d: %q", max, got)
		}
		if n := utf8.RuneCountInString(got); n > max {
			t.Fatalf("rune count %d exceeds max %d", n, max)
		}
	}
}

func TestStripNoise(t *testing.T) {
	html := `<html><body>
		<script>alert("tracking")</script>
		<div class="cookie-banner">We value your privacy, accept all cookies.</div>
		<div class="modal-overlay">Sign up for our newsletter</div>
		<aside>Related couples</aside>
		<p>The ceremony begins at 4pm</p>
	</body></html>`

	got := stripNoise(html)
	if strings.Contains(got, "alert(") {
		t.Error("script survived stripping")
	}
	if strings.Contains(got, "accept all cookies") {
		t.Error("cookie banner survived stripping")
	}
	if strings.Contains(got, "newsletter") {
		t.Error("modal survived stripping")
	}
	if strings.Contains(got, "Related couples") {
		t.Error("aside survived stripping")
	}
	if !strings.Contains(got, "The ceremony begins at 4pm") {
		t.Error("real content was stripped")
	}
}

func TestExtractFAQPairs_DetailsSummary(t *testing.T) {
	html := `<html><body>
		<details><summary>What should I wear?</summary><p>Cocktail attire, please.</p></details>
		<details><summary>Can I bring a plus one?</summary><p>Check your invitation.</p></details>
	</body></html>`

	got := extractFAQPairs(html)
	if !strings.Contains(got, "Q: What should I wear?") {
		t.Errorf("missing first question: %q", got)
	}
	if !strings.Contains(got, "A: Cocktail attire, please.") {
		t.Errorf("missing first answer: %q", got)
	}
	if !strings.Contains(got, "Q: Can I bring a plus one?") {
		t.Errorf("missing second question: %q", got)
	}
}

func TestExtractFAQPairs_DefinitionList(t *testing.T) {
	html := `<dl>
		<dt>Is there parking?</dt><dd>Yes, the venue has a free lot.</dd>
		<dt>Are kids welcome?</dt><dd>We love your kids, but this is an adults-only event.</dd>
	</dl>`

	got := extractFAQPairs(html)
	if !strings.Contains(got, "Q: Is there parking?") || !strings.Contains(got, "A: Yes, the venue has a free lot.") {
		t.Errorf("dt/dd pair not extracted: %q", got)
	}
}

func TestExtractFAQPairs_ClassPairs(t *testing.T) {
	html := `<div class="faq-list">
		<div class="faq-question">What time should I arrive?</div>
		<div class="faq-answer">Please arrive by 3:30pm.</div>
	</div>`

	got := extractFAQPairs(html)
	if !strings.Contains(got, "Q: What time should I arrive?") || !strings.Contains(got, "A: Please arrive by 3:30pm.") {
		t.Errorf("class pair not extracted: %q", got)
	}
}

func TestExtractFAQPairs_Dedupe(t *testing.T) {
	// The same accordion rendered twice (mobile + desktop variants).
	html := `<body>
		<details><summary>What should I wear?</summary>Cocktail attire.</details>
		<details><summary>What should I wear?</summary>Cocktail attire.</details>
	</body>`

	got := extractFAQPairs(html)
	if n := strings.Count(got, "Q: What should I wear?"); n != 1 {
		t.Errorf("duplicate question kept %d times: %q", n, got)
	}
}

func TestExtractFAQPairs_Empty(t *testing.T) {
	if got := extractFAQPairs("<p>No questions here.</p>"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

const hotelCardHTML = `<div class="hotel-card">
	<h3>The Grand Hotel</h3>
	<p>We reserved a room block for our guests. Mention the Smith wedding when booking.</p>
	<p>123 Main Street, Springfield</p>
	<p>(555) 123-4567</p>
	<p>A shuttle will run between the hotel and the venue.</p>
	<a href="https://hotels.example.com/grand">Book your room</a>
</div>`

func TestTravelScore_HotelCard(t *testing.T) {
	s := testSanitizer(testConfig())
	got := s.travelText("<html><body>"+hotelCardHTML+"</body></html>", "https://example.com/travel")

	if got == "" {
		t.Fatal("hotel card should score above threshold")
	}
	if !strings.Contains(got, "The Grand Hotel") {
		t.Errorf("hotel name missing: %q", got)
	}
	if !strings.Contains(got, "123 Main Street") {
		t.Errorf("address missing: %q", got)
	}
	if !strings.Contains(got, "https://hotels.example.com/grand") {
		t.Errorf("booking URL missing: %q", got)
	}
}

func TestTravelScore_LowSignalBlockDropped(t *testing.T) {
	s := testSanitizer(testConfig())
	html := `<html><body><div class="intro">
		<p>We cannot wait to celebrate with all of our favorite people this September!</p>
	</div></body></html>`

	if got := s.travelText(html, "https://example.com/travel"); got != "" {
		t.Errorf("low-signal block should not score, got %q", got)
	}
}

func TestTravelScore_InnermostBlockWins(t *testing.T) {
	s := testSanitizer(testConfig())
	html := `<html><body><div class="travel-page">` + hotelCardHTML + `</div></body></html>`

	got := s.travelText(html, "https://example.com/travel")
	if got == "" {
		t.Fatal("expected travel content")
	}
	if n := strings.Count(got, "The Grand Hotel"); n != 1 {
		t.Errorf("hotel card duplicated %d times by wrapper block: %q", n, got)
	}
}

func TestPage_TravelFallsBackToMainContent(t *testing.T) {
	s := testSanitizer(testConfig())
	html := `<html><body><article>
		<h1>Getting There</h1>
		<p>` + strings.Repeat("The venue is a short drive from downtown and parking is plentiful. ", 5) + `</p>
	</article></body></html>`

	page := s.Page(models.KindTravel, html, "https://example.com/travel")
	if page.Text == "" {
		t.Fatal("travel page with no scoring blocks should fall back to main extraction")
	}
	if !strings.Contains(page.Text, "short drive from downtown") {
		t.Errorf("fallback content missing: %q", page.Text)
	}
}

func TestPage_AppliesKindCap(t *testing.T) {
	cfg := testConfig()
	cfg.FAQCap = 40
	s := testSanitizer(cfg)

	html := `<body>
		<details><summary>What should I wear to the ceremony?</summary>Cocktail attire please, no jeans.</details>
		<details><summary>Can I bring my children along?</summary>This is an adults-only celebration.</details>
	</body>`

	page := s.Page(models.KindFAQ, html, "https://example.com/faq")
	if page.Chars > 40 {
		t.Errorf("FAQ cap not applied: %d chars", page.Chars)
	}
	if page.Chars != utf8.RuneCountInString(page.Text) {
		t.Errorf("Chars %d does not match text rune count %d", page.Chars, utf8.RuneCountInString(page.Text))
	}
}

func TestPage_MainExtraction(t *testing.T) {
	s := testSanitizer(testConfig())
	html := `<html><head><title>Sarah & Tom</title></head><body>
		<div id="app"><div>
			<h1>Sarah &amp; Tom</h1>
			<p>Join us on June 14, 2026 at The Barn at Willow Creek.</p>
			<p>We are so excited to celebrate our wedding with family and friends from near and far.</p>
		</div></div>
	</body></html>`

	page := s.Page(models.KindMain, html, "https://example.com/")
	if !strings.Contains(page.Text, "June 14, 2026") {
		t.Errorf("main content missing date: %q", page.Text)
	}
	if !strings.Contains(page.Text, "Willow Creek") {
		t.Errorf("main content missing venue: %q", page.Text)
	}
}

func TestAssemble_KindOrdering(t *testing.T) {
	s := testSanitizer(testConfig())
	pages := []models.PageContent{
		{URL: "https://x.com/", Kind: models.KindMain, Text: "main page content"},
		{URL: "https://x.com/schedule", Kind: models.KindSchedule, Text: "schedule content"},
		{URL: "https://x.com/travel", Kind: models.KindTravel, Text: "travel content"},
		{URL: "https://x.com/faq", Kind: models.KindFAQ, Text: "faq content"},
	}

	payload, included := s.Assemble(pages)

	iTravel := strings.Index(payload, "=== TRAVEL PAGE ===")
	iFAQ := strings.Index(payload, "=== FAQ PAGE ===")
	iSchedule := strings.Index(payload, "=== SCHEDULE PAGE ===")
	iMain := strings.Index(payload, "=== MAIN PAGE ===")

	for name, idx := range map[string]int{"travel": iTravel, "faq": iFAQ, "schedule": iSchedule, "main": iMain} {
		if idx < 0 {
			t.Fatalf("%s section missing from payload:\n%s", name, payload)
		}
	}
	if !(iTravel < iFAQ && iFAQ < iSchedule && iSchedule < iMain) {
		t.Errorf("wrong section order: travel=%d faq=%d schedule=%d main=%d", iTravel, iFAQ, iSchedule, iMain)
	}

	for i, inc := range included {
		if !inc {
			t.Errorf("page %d should be included under a large budget", i)
		}
	}
}

func TestAssemble_TruncatesAfterOrdering(t *testing.T) {
	cfg := testConfig()
	cfg.FullTextBudget = 80
	s := testSanitizer(cfg)

	pages := []models.PageContent{
		{URL: "https://x.com/", Kind: models.KindMain, Text: strings.Repeat("m", 60)},
		{URL: "https://x.com/travel", Kind: models.KindTravel, Text: strings.Repeat("t", 60)},
	}

	payload, included := s.Assemble(pages)

	if !strings.Contains(payload, "=== TRAVEL PAGE ===") {
		t.Errorf("travel section should survive truncation:\n%s", payload)
	}
	if strings.Contains(payload, "=== MAIN PAGE ===") {
		t.Errorf("main section should be cut by the budget:\n%s", payload)
	}
	if n := utf8.RuneCountInString(payload); n > 80 {
		t.Errorf("payload exceeds budget: %d runes", n)
	}
	if !included[1] {
		t.Error("travel page should be marked included")
	}
	if included[0] {
		t.Error("main page should be marked dropped")
	}
}

func TestAssemble_SkipsEmptyPages(t *testing.T) {
	s := testSanitizer(testConfig())
	pages := []models.PageContent{
		{URL: "https://x.com/travel", Kind: models.KindTravel, Text: "   "},
		{URL: "https://x.com/faq", Kind: models.KindFAQ, Text: "faq content"},
	}

	payload, included := s.Assemble(pages)
	if strings.Contains(payload, "=== TRAVEL PAGE ===") {
		t.Error("empty page produced a section")
	}
	if included[0] {
		t.Error("empty page should not be marked included")
	}
	if !included[1] {
		t.Error("non-empty page should be included")
	}
}

func TestConvertToCitations(t *testing.T) {
	in := "Book [Grand Hotel](https://h.example.com/grand) or [Grand Hotel](https://h.example.com/grand) or [Inn](https://h.example.com/inn)"
	got := ConvertToCitations(in)

	if !strings.Contains(got, "[Grand Hotel][1]") {
		t.Errorf("inline link not converted: %q", got)
	}
	if !strings.Contains(got, "[Inn][2]") {
		t.Errorf("second URL should get reference 2: %q", got)
	}
	if n := strings.Count(got, "[1]: https://h.example.com/grand"); n != 1 {
		t.Errorf("duplicate URL should share one reference, got %d: %q", n, got)
	}
}

func TestConvertToCitations_NoLinks(t *testing.T) {
	in := "no links at all"
	if got := ConvertToCitations(in); got != in {
		t.Errorf("text without links should pass through, got %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"ab", 1},
		{strings.Repeat("a", 300), 100},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.in), got, tt.want)
		}
	}
}
