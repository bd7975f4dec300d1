package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/usherhq/usher/models"
)

// ErrBlocked marks acquisition failures caused by anti-bot protection.
// Callers can test for it with errors.Is to distinguish a blocked site
// from an unreachable one.
var ErrBlocked = errors.New("blocked by bot protection")

// Acquirer implements the tiered acquisition policy: at most one light
// HTTP attempt, then at most one browser render. A blocked light response
// escalates the whole session for that host; hosts on the always-browser
// list never see the light tier at all.
type Acquirer struct {
	http          Engine
	browser       Engine
	classifier    *Classifier
	alwaysBrowser []string
	log           *slog.Logger
}

// NewAcquirer wires the two tiers together. alwaysBrowser holds host
// suffixes (e.g. "theknot.com") known to hard-block plain HTTP clients.
func NewAcquirer(httpEng, browserEng Engine, classifier *Classifier, alwaysBrowser []string, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		http:          httpEng,
		browser:       browserEng,
		classifier:    classifier,
		alwaysBrowser: alwaysBrowser,
		log:           logger,
	}
}

// Acquire fetches one URL under the session's escalation state.
//
// Failure of both tiers (or a browser result that still classifies as
// blocked) returns a PAGE_UNAVAILABLE ScrapeError; blocked causes wrap
// ErrBlocked. The caller decides whether that is fatal (main page) or a
// recoverable skip (subpage).
func (a *Acquirer) Acquire(ctx context.Context, rawURL string, sess *Session) (*FetchResult, error) {
	host := hostOf(rawURL)

	if a.skipLightTier(host, sess) {
		return a.browserAttempt(ctx, rawURL, "")
	}

	res, err := a.http.Fetch(ctx, rawURL)
	if err != nil {
		// Transport failure is not evidence of bot blocking; try the
		// browser for this URL without marking the session.
		a.log.Debug("light fetch failed, trying browser", "url", rawURL, "error", err)
		return a.browserAttempt(ctx, rawURL, "")
	}

	if blocked, reason := a.classifier.Classify(res.StatusCode, res.HTML); blocked {
		sess.Escalate(host)
		a.log.Info("light tier blocked, session escalated",
			"host", host, "url", rawURL, "reason", reason)
		return a.browserAttempt(ctx, rawURL, reason)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// Not blocked, just broken (404, 500). The browser sometimes
		// still gets a real page out of these; no sticky escalation.
		a.log.Debug("light tier error status, trying browser",
			"url", rawURL, "status", res.StatusCode)
		return a.browserAttempt(ctx, rawURL, "")
	}

	return res, nil
}

// browserAttempt runs the single heavy-tier attempt. lightReason carries
// the classification that triggered escalation, for error context.
func (a *Acquirer) browserAttempt(ctx context.Context, rawURL, lightReason string) (*FetchResult, error) {
	res, err := a.browser.Fetch(ctx, rawURL)
	if err != nil {
		msg := fmt.Sprintf("page could not be acquired: %s", rawURL)
		if lightReason != "" {
			return nil, models.NewScrapeError(models.ErrCodePageUnavailable, msg,
				fmt.Errorf("%w (light tier: %s): %v", ErrBlocked, lightReason, err))
		}
		return nil, models.NewScrapeError(models.ErrCodePageUnavailable, msg, err)
	}

	if blocked, reason := a.classifier.ClassifyRendered(res.StatusCode, res.HTML); blocked {
		res.Blocked = true
		res.BlockReason = reason
		return nil, models.NewScrapeError(models.ErrCodePageUnavailable,
			fmt.Sprintf("blocked after browser render: %s", reason),
			fmt.Errorf("%w: %s", ErrBlocked, reason))
	}

	if lightReason != "" {
		res.BlockReason = lightReason
	}
	return res, nil
}

// skipLightTier reports whether this host goes straight to the browser.
func (a *Acquirer) skipLightTier(host string, sess *Session) bool {
	if sess.Escalated(host) {
		return true
	}
	for _, suffix := range a.alwaysBrowser {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// hostOf parses the hostname from a URL string.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
