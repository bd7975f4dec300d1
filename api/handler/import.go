package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/store"
)

// Import returns a handler for POST /api/v1/import.
//
// It scrapes the wedding site and upserts the merged record through the
// persistence collaborator. The caller-supplied wedding_id is the
// idempotency key; when absent the normalized source URL is used, so
// re-importing the same site updates rather than duplicates.
func Import(co *extract.Coordinator, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ImportResponse{
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

		result, err := co.Scrape(ctx, req.URL, extract.Options{})
		if err != nil {
			respondImportError(c, err)
			return
		}

		weddingID := req.WeddingID
		if weddingID == "" {
			weddingID = result.SourceURL
		}

		created, err := st.Upsert(c.Request.Context(), &store.Record{
			WeddingID: weddingID,
			SourceURL: result.SourceURL,
			Platform:  result.Platform,
			Data:      result.Data,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ImportResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to persist wedding record: " + err.Error(),
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.ImportResponse{
			Success:   true,
			WeddingID: weddingID,
			Created:   created,
			Data:      &result.Data,
			Warnings:  result.Warnings,
		})
	}
}

func respondImportError(c *gin.Context, err error) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ImportResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}
