package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usherhq/usher/api"
	"github.com/usherhq/usher/cache"
	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/engine"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/llm"
	"github.com/usherhq/usher/renderer"
	"github.com/usherhq/usher/sanitize"
	"github.com/usherhq/usher/sitemap"
	"github.com/usherhq/usher/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	logger := slog.Default()
	slog.Info("usher starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxBrowsers", cfg.Slots.HardMax,
	)

	// ── 3. Browser slot governor ────────────────────────────────────
	// Sessions launch their own browser; the governor only bounds how
	// many run at once and shrinks that bound under memory pressure.
	gov := renderer.NewSlotGovernor(cfg.Slots, logger)
	defer gov.Stop()

	// ── 4. Acquisition tiers ────────────────────────────────────────
	httpEngine := engine.NewHTTPEngine(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	classifier := engine.NewClassifier(cfg.Fetch.MinContent, cfg.Fetch.BlockedMarkers)

	// ── 5. Discovery, sanitization, extraction ──────────────────────
	mapperCfg := sitemap.DefaultConfig()
	mapperCfg.MaxSubpages = cfg.Mapper.MaxSubpages
	mapperCfg.SitemapProbe = cfg.Mapper.SitemapProbe
	mapper := sitemap.New(mapperCfg, logger)

	sanitizer := sanitize.New(cfg.Sanitize, logger)

	extractor := llm.New(cfg.LLM, logger)
	if !extractor.Enabled() {
		slog.Warn("no LLM API key configured; scrapes return heuristic fields only")
	}

	// ── 6. Coordinator ──────────────────────────────────────────────
	co := extract.NewCoordinator(extract.Deps{
		HTTP:       httpEngine,
		Classifier: classifier,
		NewRenderer: func() extract.SessionRenderer {
			return renderer.New(cfg.Renderer, gov, logger)
		},
		AlwaysBrowserHosts: cfg.Fetch.AlwaysBrowserHosts,
		Mapper:             mapper,
		Sanitizer:          sanitizer,
		Extractor:          extractor,
		Logger:             logger,
	})

	// ── 7. Persistence + cache ──────────────────────────────────────
	st := store.NewMemory()

	var cc *cache.Cache
	if cfg.Cache.MaxEntries > 0 {
		cc = cache.New(cfg.Cache.MaxEntries)
	}

	// ── 8. Router + HTTP server ─────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(co, st, cc, gov, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight scrapes 10 seconds to complete; each session closes
	// its own browser on the way out.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("usher stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
