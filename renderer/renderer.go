package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/engine"
	"github.com/usherhq/usher/models"
)

// slowSettleHints are URL fragments of pages that populate content late
// (hotel-block widgets, map embeds). They get the longer settle delay.
var slowSettleHints = []string{"travel", "accommodation", "hotel", "stay", "lodging"}

// Renderer owns one headless browser for the lifetime of one scrape
// session. Start launches the browser (taking a governor slot), Render
// fetches one URL at a time, Close releases everything. A Renderer is
// never shared between sessions and its methods are called sequentially.
type Renderer struct {
	cfg   config.RendererConfig
	slots *SlotGovernor
	log   *slog.Logger

	// Viewport is drawn once per session so every page render in the
	// session presents the same plausible window.
	width  int
	height int

	mu       sync.Mutex
	browser  *rod.Browser
	started  bool
	closed   bool
	slotHeld bool

	closeOnce sync.Once
}

// New creates an unstarted Renderer. slots may be nil (no global bound).
func New(cfg config.RendererConfig, slots *SlotGovernor, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:    cfg,
		slots:  slots,
		log:    logger,
		width:  randBetween(cfg.ViewportMinWidth, cfg.ViewportMaxWidth),
		height: randBetween(cfg.ViewportMinHeight, cfg.ViewportMaxHeight),
	}
}

func randBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// Start launches the browser process. Calling Start on an already started
// Renderer is a no-op; calling it after Close is an error.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return models.NewScrapeError(models.ErrCodeRenderer, "renderer already closed", nil)
	}
	if r.started {
		return nil
	}

	if r.slots != nil {
		if err := r.slots.Acquire(ctx); err != nil {
			return models.NewScrapeError(models.ErrCodeRenderer, "no browser slot available", err)
		}
		r.slotHeld = true
	}

	l := launcher.New().
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", r.width, r.height))

	controlURL, err := l.Launch()
	if err != nil {
		r.releaseSlotLocked()
		return models.NewScrapeError(models.ErrCodeRenderer, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		r.releaseSlotLocked()
		return models.NewScrapeError(models.ErrCodeRenderer, "failed to connect to browser", err)
	}

	r.browser = browser
	r.started = true
	r.log.Info("renderer started", "viewport_w", r.width, "viewport_h", r.height)
	return nil
}

// Render fetches one URL through the session browser.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Guard + deadline      – renderer must be started; NavTimeout applies
//  2. Stealth page          – stealth script set, then the supplemental one
//  3. Viewport + referer    – session viewport, Google-search referer
//  4. Hijack mount          – block images/fonts/media + trackers (before navigation!)
//  5. Navigate + DOM wait   – wait for DOM construction, never network idle
//  6. Settle + scroll pass  – let late widgets load, walk the page for lazy content
//  7. Status + extract      – status from the performance entry, then HTML
func (r *Renderer) Render(ctx context.Context, rawURL string) (*engine.FetchResult, error) {
	// ── 1. Guard + deadline ──────────────────────────────────────────
	r.mu.Lock()
	if !r.started || r.closed {
		r.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeRenderer, "renderer not started", nil)
	}
	browser := r.browser
	r.mu.Unlock()

	if r.cfg.NavTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.NavTimeout)
		defer cancel()
	}

	// ── 2. Stealth page ──────────────────────────────────────────────
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeRenderer, "failed to open page", err)
	}
	defer func() { _ = page.Close() }()

	if _, evalErr := page.EvalOnNewDocument(supplementalStealthJS); evalErr != nil {
		r.log.Warn("supplemental stealth injection failed, proceeding without it",
			"error", evalErr)
	}

	// ── 3. Viewport + referer ────────────────────────────────────────
	if viewErr := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.width,
		Height:            r.height,
		DeviceScaleFactor: 1,
	}); viewErr != nil {
		r.log.Debug("set viewport failed", "error", viewErr)
	}

	if u, parseErr := url.Parse(rawURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	// ── 4. Hijack mount (before navigation!) ─────────────────────────
	router := setupHijack(page, r.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 5. Navigate + DOM wait ───────────────────────────────────────
	if navErr := p.Navigate(rawURL); navErr != nil {
		return nil, categorizeRenderError(navErr, "navigation failed")
	}

	// Bounded wait for DOM construction. Network idle is deliberately not
	// used: wedding platforms keep analytics sockets open for minutes.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		r.log.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr)
	}

	// ── 6. Settle + scroll pass ──────────────────────────────────────
	settle := r.cfg.SettleDelay
	if needsLongSettle(rawURL) {
		settle = r.cfg.TravelSettleDelay
	}
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return nil, categorizeRenderError(ctx.Err(), "render timed out while settling")
		}
	}

	scrollPass(p)

	// ── 7. Status + extract ──────────────────────────────────────────
	statusCode := 200
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		if code := res.Value.Int(); code > 0 {
			statusCode = code
		}
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeRenderError(htmlErr, "failed to extract page HTML")
	}

	finalURL := rawURL
	if res, evalErr := p.Eval(`() => window.location.href`); evalErr == nil {
		if href := res.Value.Str(); href != "" {
			finalURL = href
		}
	}

	return &engine.FetchResult{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: statusCode,
		HTML:       rawHTML,
		Via:        engine.TierBrowser,
	}, nil
}

// Close shuts the browser down and releases the governor slot. Safe to
// call exactly once per session from a defer; extra calls are no-ops.
func (r *Renderer) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		browser := r.browser
		r.browser = nil
		held := r.slotHeld
		r.slotHeld = false
		r.mu.Unlock()

		if browser != nil {
			if err := browser.Close(); err != nil {
				r.log.Warn("renderer: browser close failed", "error", err)
			}
		}
		if held && r.slots != nil {
			r.slots.Release()
		}
		r.log.Debug("renderer closed")
	})
}

// releaseSlotLocked gives the slot back after a failed start. Caller holds r.mu.
func (r *Renderer) releaseSlotLocked() {
	if r.slotHeld && r.slots != nil {
		r.slots.Release()
		r.slotHeld = false
	}
}

// needsLongSettle reports whether the URL looks like a travel or lodging
// page, which load hotel widgets after the DOM is stable.
func needsLongSettle(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, hint := range slowSettleHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// categorizeRenderError wraps raw errors into typed ScrapeErrors so the
// acquirer and coordinator can tell timeouts from dead pages.
func categorizeRenderError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodePageUnavailable, msg, err)
	}
}
