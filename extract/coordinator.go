package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/usherhq/usher/engine"
	"github.com/usherhq/usher/llm"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/sanitize"
	"github.com/usherhq/usher/simhash"
	"github.com/usherhq/usher/sitemap"
)

// SessionRenderer is the browser lifecycle one scrape session drives.
// renderer.Renderer implements it; tests substitute fakes.
type SessionRenderer interface {
	Start(ctx context.Context) error
	Render(ctx context.Context, url string) (*engine.FetchResult, error)
	Close()
}

// RendererFactory mints the renderer for one scrape session. Every session
// owns exactly one, and the coordinator closes it on every exit path.
type RendererFactory func() SessionRenderer

// ModelExtractor is the LLM extraction pass. llm.Extractor implements it.
type ModelExtractor interface {
	Enabled() bool
	Extract(ctx context.Context, payload string) (*models.WeddingData, llm.Usage, error)
}

// ProgressFunc receives coarse pipeline progress (stage name, percent).
type ProgressFunc func(stage string, pct int)

// Options tune one Scrape call.
type Options struct {
	// SkipExtraction skips the model pass and returns heuristic fields
	// only.
	SkipExtraction bool

	// OnProgress, when non-nil, is called as the pipeline advances.
	// Async jobs surface it as job progress.
	OnProgress ProgressFunc
}

func (o Options) notify(stage string, pct int) {
	if o.OnProgress != nil {
		o.OnProgress(stage, pct)
	}
}

// Deps are the coordinator's collaborators. cmd/usher wires the real set;
// tests substitute fakes for the network-touching ones.
type Deps struct {
	HTTP               engine.Engine
	Classifier         *engine.Classifier
	NewRenderer        RendererFactory
	AlwaysBrowserHosts []string
	Mapper             *sitemap.Mapper
	Sanitizer          *sanitize.Sanitizer
	Extractor          ModelExtractor
	Logger             *slog.Logger
}

// Coordinator runs the full pipeline for one wedding site: tiered page
// acquisition, subpage discovery, per-kind sanitization, model extraction,
// and the heuristic/model merge.
type Coordinator struct {
	deps Deps
	log  *slog.Logger
}

// NewCoordinator creates a Coordinator from its collaborators.
func NewCoordinator(deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Coordinator{
		deps: deps,
		log:  deps.Logger.With("component", "coordinator"),
	}
}

// Scrape turns one wedding site URL into a merged WeddingData record.
//
// Only three things are fatal: an invalid URL, a main page that cannot be
// acquired, and the overall deadline. Everything after the main page
// (subpage failures, duplicate pages, a model outage) degrades into
// warnings on a successful result.
func (c *Coordinator) Scrape(ctx context.Context, rawURL string, opts Options) (*models.ScrapeResult, error) {
	started := time.Now()

	// ── 1. Validate input, detect platform ──────────────────────────
	siteURL, err := normalizeInput(rawURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid wedding site URL", err)
	}
	platform := c.deps.Mapper.Detect(hostname(siteURL))
	log := c.log.With("url", siteURL, "platform", platform)
	opts.notify("acquiring", 5)

	// ── 2. Session state: escalation map + one renderer per session ──
	sess := engine.NewSession()
	rend := c.deps.NewRenderer()
	defer rend.Close()
	acq := c.sessionAcquirer(rend)

	// ── 3. Main page; failure here is fatal ──────────────────────────
	var acquisitionMs, sanitizeMs int64
	acqStart := time.Now()
	main, err := acq.Acquire(ctx, siteURL, sess)
	acquisitionMs += time.Since(acqStart).Milliseconds()
	if err != nil {
		return nil, classifyMainFailure(siteURL, err)
	}

	// ── 4. Discover subpages, split off never-fetched kinds ──────────
	opts.notify("discovering", 20)
	subs := c.deps.Mapper.Discover(ctx, siteURL, main.HTML)

	var fetchList []sitemap.Subpage
	var skipped []string
	for _, sp := range subs {
		if sp.Skip {
			skipped = append(skipped, sp.URL)
			continue
		}
		fetchList = append(fetchList, sp)
	}

	// ── 5. Sanitize the main page, seed duplicate detection ──────────
	sanStart := time.Now()
	mainContent := c.deps.Sanitizer.Page(models.KindMain, main.HTML, siteURL)
	sanitizeMs += time.Since(sanStart).Milliseconds()

	deduper := simhash.NewDeduper(simhash.DefaultTextThreshold)
	deduper.Seen(mainContent.Text)
	mainDOM := simhash.FingerprintDOM(main.HTML)

	var (
		pages     []models.PageContent
		summaries []models.PageSummary
		sumIdx    []int // pages index -> summaries index
		warnings  []string
	)
	keep := func(content models.PageContent, via string) {
		pages = append(pages, content)
		sumIdx = append(sumIdx, len(summaries))
		summaries = append(summaries, models.PageSummary{
			URL:   content.URL,
			Kind:  content.Kind,
			Via:   via,
			Chars: content.Chars,
		})
	}
	keep(mainContent, main.Via.String())

	// ── 6. Subpages: sequential, same session, failures degrade ──────
	for i, sp := range fetchList {
		if ctx.Err() != nil {
			warnings = append(warnings, fmt.Sprintf("deadline reached with %d subpages left", len(fetchList)-i))
			break
		}
		opts.notify("subpages", 25+45*(i+1)/len(fetchList))

		acqStart = time.Now()
		res, err := acq.Acquire(ctx, sp.URL, sess)
		acquisitionMs += time.Since(acqStart).Milliseconds()
		if err != nil {
			log.Warn("subpage unavailable, skipping", "subpage", sp.URL, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: %s", models.ErrCodePageUnavailable, sp.URL))
			continue
		}

		// Guessed paths can come back as the platform's branded error
		// shell with status 200; structurally they match the main page.
		if sp.Probed && simhash.Similar(simhash.FingerprintDOM(res.HTML), mainDOM, simhash.DefaultDOMThreshold) {
			log.Debug("probed page is a soft 404", "subpage", sp.URL)
			summaries = append(summaries, models.PageSummary{
				URL: sp.URL, Kind: sp.Kind, Via: res.Via.String(), Dropped: "soft_404",
			})
			continue
		}

		sanStart = time.Now()
		content := c.deps.Sanitizer.Page(sp.Kind, res.HTML, sp.URL)
		sanitizeMs += time.Since(sanStart).Milliseconds()

		if deduper.Seen(content.Text) {
			log.Debug("subpage duplicates kept content", "subpage", sp.URL)
			summaries = append(summaries, models.PageSummary{
				URL: sp.URL, Kind: sp.Kind, Via: res.Via.String(), Chars: content.Chars, Dropped: "duplicate",
			})
			continue
		}

		keep(content, res.Via.String())
	}

	// ── 7. Assemble the extraction payload ───────────────────────────
	sanStart = time.Now()
	fullText, included := c.deps.Sanitizer.Assemble(pages)
	sanitizeMs += time.Since(sanStart).Milliseconds()

	for pi, ok := range included {
		if !ok && pages[pi].Chars > 0 {
			summaries[sumIdx[pi]].Dropped = "budget"
		}
	}

	// ── 8. Heuristic pass: metadata, JSON-LD, URL shapes, links ──────
	heur := heuristicExtract(main.HTML, siteURL, subs)

	// ── 9. Model pass; every failure degrades to heuristics-only ─────
	var modelData *models.WeddingData
	var usage llm.Usage
	var extractionMs int64

	switch {
	case opts.SkipExtraction:
		log.Debug("model extraction skipped by request")
	case c.deps.Extractor == nil || !c.deps.Extractor.Enabled():
		warnings = append(warnings, models.ErrCodeExtractionUnavailable+": no model API key configured")
	case strings.TrimSpace(fullText) == "":
		warnings = append(warnings, models.ErrCodeExtractionUnavailable+": no page text survived sanitization")
	default:
		opts.notify("extracting", 75)
		exStart := time.Now()
		md, u, err := c.deps.Extractor.Extract(ctx, fullText)
		extractionMs = time.Since(exStart).Milliseconds()
		usage = u
		if err != nil {
			log.Warn("model extraction failed, degrading to heuristics", "error", err)
			warnings = append(warnings, extractionWarning(err))
		} else {
			modelData = md
		}
	}

	// ── 10. Merge and report ──────────────────────────────────────────
	opts.notify("merging", 95)
	data, prov := Merge(heur, modelData)

	result := &models.ScrapeResult{
		SourceURL:     siteURL,
		Platform:      platform.String(),
		Data:          data,
		Provenance:    prov,
		Warnings:      warnings,
		Pages:         summaries,
		PagesSkipped:  skipped,
		FullTextChars: utf8.RuneCountInString(fullText),
		Tokens: models.TokenInfo{
			PayloadEstimate:  sanitize.EstimateTokens(fullText),
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
		},
		Timing: models.TimingInfo{
			TotalMs:       time.Since(started).Milliseconds(),
			AcquisitionMs: acquisitionMs,
			SanitizeMs:    sanitizeMs,
			ExtractionMs:  extractionMs,
		},
	}
	opts.notify("done", 100)

	log.Info("scrape complete",
		"pages_kept", len(pages),
		"pages_skipped", len(skipped),
		"full_text_chars", result.FullTextChars,
		"warnings", len(warnings),
		"total_ms", result.Timing.TotalMs,
	)
	return result, nil
}

// Map previews platform detection and subpage discovery without
// sanitization or extraction. The main page is still acquired through the
// tiered policy because discovery needs its HTML.
func (c *Coordinator) Map(ctx context.Context, rawURL string) (sitemap.Platform, []sitemap.Subpage, error) {
	siteURL, err := normalizeInput(rawURL)
	if err != nil {
		return "", nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid wedding site URL", err)
	}
	platform := c.deps.Mapper.Detect(hostname(siteURL))

	sess := engine.NewSession()
	rend := c.deps.NewRenderer()
	defer rend.Close()
	acq := c.sessionAcquirer(rend)

	main, err := acq.Acquire(ctx, siteURL, sess)
	if err != nil {
		return platform, nil, classifyMainFailure(siteURL, err)
	}

	return platform, c.deps.Mapper.Discover(ctx, siteURL, main.HTML), nil
}

// sessionAcquirer builds the tiered acquirer bound to one session's
// renderer. The browser starts on first use, so scrapes satisfied entirely
// by the light tier never launch Chrome; a failed launch is remembered
// rather than retried for every remaining page.
func (c *Coordinator) sessionAcquirer(rend SessionRenderer) *engine.Acquirer {
	var startFailed error
	started := false

	browser := engine.NewBrowserEngine(func(ctx context.Context, u string) (*engine.FetchResult, error) {
		if startFailed != nil {
			return nil, startFailed
		}
		if !started {
			if err := rend.Start(ctx); err != nil {
				startFailed = err
				return nil, err
			}
			started = true
		}
		return rend.Render(ctx, u)
	})

	return engine.NewAcquirer(c.deps.HTTP, browser, c.deps.Classifier, c.deps.AlwaysBrowserHosts, c.log)
}

// classifyMainFailure maps a failed main-page acquisition onto the fatal
// outcome the caller sees.
func classifyMainFailure(siteURL string, err error) *models.ScrapeError {
	switch {
	case errors.Is(err, engine.ErrBlocked):
		return models.NewScrapeError(models.ErrCodeBlocked,
			fmt.Sprintf("site is blocking automated access: %s", siteURL), err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout,
			fmt.Sprintf("timed out acquiring: %s", siteURL), err)
	default:
		return models.NewScrapeError(models.ErrCodeUnreachable,
			fmt.Sprintf("site could not be reached: %s", siteURL), err)
	}
}

// extractionWarning renders a model failure as a result warning.
func extractionWarning(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s: %s", models.ErrCodeExtractionUnavailable, se.Message)
	}
	return fmt.Sprintf("%s: %v", models.ErrCodeExtractionUnavailable, err)
}

// normalizeInput validates the input URL and puts it in canonical form:
// https assumed when no scheme given, lowercased host, fragment dropped.
func normalizeInput(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
