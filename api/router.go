package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/api/handler"
	"github.com/usherhq/usher/api/middleware"
	"github.com/usherhq/usher/cache"
	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/renderer"
	"github.com/usherhq/usher/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(co *extract.Coordinator, st store.Store, cc *cache.Cache, gov *renderer.SlotGovernor, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(gov, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape (synchronous and async with job polling)
	protected.POST("/scrape", handler.Scrape(co, cc))
	protected.POST("/scrape/async", handler.ScrapeAsync(co, cc, cfg.Jobs.MaxConcurrent))
	protected.GET("/jobs/:id", handler.GetJob())

	// Import (scrape + persist under an idempotency key)
	protected.POST("/import", handler.Import(co, st))

	// Map (platform + subpage discovery preview)
	protected.POST("/map", handler.Map(co))

	return r
}
