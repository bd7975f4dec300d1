package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/cache"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup (skipped when skip_cache is set).
//  3. Coordinator.Scrape under the request deadline.
//  4. Assemble response, store in cache, return 200.
func Scrape(co *extract.Coordinator, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.SkipExtraction)
		if cc != nil && !req.SkipCache {
			if cached, hit := cc.Get(cacheKey); hit {
				out := *cached
				out.CacheStatus = "hit"
				out.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, &out)
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		result, err := co.Scrape(ctx, req.URL, extract.Options{
			SkipExtraction: req.SkipExtraction,
		})
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		// ── 4. Respond + cache store ────────────────────────────────
		resp := toScrapeResponse(result)
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
		if cc != nil && !req.SkipCache {
			resp.CacheStatus = "miss"
			stored := *resp
			cc.Set(cacheKey, &stored)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// toScrapeResponse lifts a coordinator result into the API response shape.
func toScrapeResponse(result *models.ScrapeResult) *models.ScrapeResponse {
	return &models.ScrapeResponse{
		Success:      true,
		SourceURL:    result.SourceURL,
		Platform:     result.Platform,
		Data:         &result.Data,
		Provenance:   result.Provenance,
		Warnings:     result.Warnings,
		Pages:        result.Pages,
		PagesSkipped: result.PagesSkipped,
		Tokens:       result.Tokens,
		Timing:       result.Timing,
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeUnreachable, models.ErrCodeBlocked:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
