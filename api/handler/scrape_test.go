package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/cache"
	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/engine"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/llm"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/sanitize"
	"github.com/usherhq/usher/sitemap"
)

// ── fakes ────────────────────────────────────────────────────────────────

// slowEngine serves one canned page per URL, optionally after a delay so
// async jobs stay in flight long enough to be polled mid-run.
type slowEngine struct {
	pages map[string]string
	delay time.Duration
}

func (e *slowEngine) Name() string { return "http" }

func (e *slowEngine) Fetch(ctx context.Context, url string) (*engine.FetchResult, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	html, ok := e.pages[url]
	if !ok {
		return nil, fmt.Errorf("connection refused: %s", url)
	}
	return &engine.FetchResult{StatusCode: 200, HTML: html, URL: url, FinalURL: url}, nil
}

type noRenderer struct{}

func (noRenderer) Start(ctx context.Context) error { return nil }
func (noRenderer) Render(ctx context.Context, url string) (*engine.FetchResult, error) {
	return nil, fmt.Errorf("render failed: %s", url)
}
func (noRenderer) Close() {}

type disabledExtractor struct{}

func (disabledExtractor) Enabled() bool { return false }
func (disabledExtractor) Extract(context.Context, string) (*models.WeddingData, llm.Usage, error) {
	return nil, llm.Usage{}, nil
}

func testCoordinator(eng engine.Engine) *extract.Coordinator {
	return extract.NewCoordinator(extract.Deps{
		HTTP:        eng,
		Classifier:  engine.NewClassifier(100, nil),
		NewRenderer: func() extract.SessionRenderer { return noRenderer{} },
		Mapper:      sitemap.New(sitemap.DefaultConfig(), nil),
		Sanitizer: sanitize.New(config.SanitizeConfig{
			FullTextBudget: 30000,
			TravelCap:      8000,
			FAQCap:         5000,
			MainCap:        6000,
			OtherCap:       5000,
		}, nil),
		Extractor: disabledExtractor{},
	})
}

// ── fixtures ─────────────────────────────────────────────────────────────

const testSite = "https://www.avaandnoah.com"

func sitePages() map[string]string {
	prose := strings.Repeat("We cannot wait to celebrate with you in the vineyard at sunset, surrounded by everyone we love. ", 6)
	main := `<!DOCTYPE html><html><head><title>Ava & Noah</title></head><body>` +
		`<nav><a href="/travel">Travel</a></nav>` +
		`<main><h1>Ava & Noah</h1><p>` + prose + `</p></main></body></html>`
	travel := `<!DOCTYPE html><html><head><title>Travel</title></head><body><main><h2>Getting There</h2><p>` +
		prose + `</p></main></body></html>`
	return map[string]string{
		testSite:             main,
		testSite + "/travel": travel,
	}
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ── tests ────────────────────────────────────────────────────────────────

func scrapeRouter(cc *cache.Cache, delay time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	co := testCoordinator(&slowEngine{pages: sitePages(), delay: delay})
	r := gin.New()
	r.POST("/api/v1/scrape", Scrape(co, cc))
	return r
}

func TestScrape_CacheMissThenHit(t *testing.T) {
	r := scrapeRouter(cache.New(16), 0)
	body := `{"url":"` + testSite + `"}`

	w := postJSON(r, "/api/v1/scrape", body)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: status %d: %s", w.Code, w.Body.String())
	}
	var first models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if first.CacheStatus != "miss" {
		t.Fatalf("first cache_status = %q, want miss", first.CacheStatus)
	}

	w = postJSON(r, "/api/v1/scrape", body)
	if w.Code != http.StatusOK {
		t.Fatalf("second request: status %d", w.Code)
	}
	var second models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if second.CacheStatus != "hit" {
		t.Fatalf("second cache_status = %q, want hit", second.CacheStatus)
	}
	if !second.Success || second.SourceURL != first.SourceURL {
		t.Fatalf("cached response diverged: %+v", second)
	}
}

// Concurrent requests for the same URL share one cache entry; responses
// handed to earlier callers must not be written to after they are stored.
func TestScrape_ConcurrentRequestsShareCache(t *testing.T) {
	r := scrapeRouter(cache.New(16), 5*time.Millisecond)
	body := `{"url":"` + testSite + `"}`

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := postJSON(r, "/api/v1/scrape", body)
			if w.Code != http.StatusOK {
				errs <- fmt.Sprintf("status %d: %s", w.Code, w.Body.String())
				return
			}
			var resp models.ScrapeResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				errs <- err.Error()
				return
			}
			if resp.CacheStatus != "miss" && resp.CacheStatus != "hit" {
				errs <- fmt.Sprintf("cache_status = %q", resp.CacheStatus)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestScrape_SkipCacheBypassesStore(t *testing.T) {
	cc := cache.New(16)
	r := scrapeRouter(cc, 0)

	w := postJSON(r, "/api/v1/scrape", `{"url":"`+testSite+`","skip_cache":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CacheStatus != "" {
		t.Fatalf("cache_status = %q, want empty", resp.CacheStatus)
	}
	if cc.Len() != 0 {
		t.Fatalf("cache has %d entries, want 0", cc.Len())
	}
}

func TestScrape_InvalidBody(t *testing.T) {
	r := scrapeRouter(nil, 0)
	w := postJSON(r, "/api/v1/scrape", `{"url":"not a url"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
