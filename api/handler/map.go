package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/models"
)

// Map returns a handler for POST /api/v1/map.
//
// It previews platform detection and subpage discovery for a wedding site
// without sanitizing or extracting anything. The main page is still
// acquired through the tiered policy, so the response reflects what a real
// scrape would fetch.
func Map(co *extract.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MapRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.MapResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		platform, subs, err := co.Map(ctx, req.URL)
		if err != nil {
			scrapeErr, ok := err.(*models.ScrapeError)
			if !ok {
				scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
			}
			c.JSON(mapErrorToStatus(scrapeErr), models.MapResponse{
				Success:  false,
				Platform: platform.String(),
				Error:    scrapeErr.ToDetail(),
			})
			return
		}

		var pages []models.Subpage
		var skipped []string
		for _, sp := range subs {
			if sp.Skip {
				skipped = append(skipped, sp.URL)
				continue
			}
			pages = append(pages, models.Subpage{URL: sp.URL, Kind: sp.Kind})
		}

		c.JSON(http.StatusOK, models.MapResponse{
			Success:  true,
			Platform: platform.String(),
			Subpages: pages,
			Skipped:  skipped,
		})
	}
}
