package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/cache"
	"github.com/usherhq/usher/extract"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/webhook"
)

// jobStore holds all in-flight and completed async scrape jobs.
var jobStore sync.Map

func init() {
	// Background goroutine to expire jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			jobStore.Range(func(key, value any) bool {
				job := value.(*models.ScrapeJob)
				if job.CreatedAt < cutoff {
					jobStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// ScrapeAsync returns a handler for POST /api/v1/scrape/async.
//
// The scrape runs in the background; the caller polls GET /jobs/:id or
// supplies a webhook_url to be notified. maxConcurrent bounds how many
// jobs scrape at once — each running job may hold a browser, so this is
// effectively a second bound on Chrome processes besides the slot
// governor.
func ScrapeAsync(co *extract.Coordinator, cc *cache.Cache, maxConcurrent int) gin.HandlerFunc {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.JobStatusResponse{
				Status: models.JobFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		jobID := "job-" + randomID()
		job := models.NewScrapeJob(jobID, req.URL)
		jobStore.Store(jobID, job)

		go runJob(co, cc, sem, job, req)

		c.JSON(http.StatusAccepted, models.JobResponse{
			ID:     jobID,
			Status: models.JobPending,
		})
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := jobStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, models.JobStatusResponse{
				Status: models.JobFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "job not found",
				},
			})
			return
		}

		job := val.(*models.ScrapeJob)
		c.JSON(http.StatusOK, job.Snapshot())
	}
}

// runJob executes one async scrape under the concurrency semaphore.
func runJob(co *extract.Coordinator, cc *cache.Cache, sem chan struct{}, job *models.ScrapeJob, req models.ScrapeRequest) {
	sem <- struct{}{}
	defer func() { <-sem }()

	job.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := co.Scrape(ctx, req.URL, extract.Options{
		SkipExtraction: req.SkipExtraction,
		OnProgress:     job.SetProgress,
	})
	if err != nil {
		scrapeErr, ok := err.(*models.ScrapeError)
		if !ok {
			scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
		}
		job.Fail(&models.ScrapeResponse{
			Success: false,
			Error:   scrapeErr.ToDetail(),
		}, scrapeErr.Message)

		if req.WebhookURL != "" {
			webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
				Type:      webhook.EventScrapeFailed,
				JobID:     job.ID,
				URL:       req.URL,
				Timestamp: time.Now().Unix(),
				Data:      scrapeErr.ToDetail(),
			})
		}

		slog.Warn("scrape job failed", "id", job.ID, "url", req.URL, "code", scrapeErr.Code)
		return
	}

	resp := toScrapeResponse(result)
	if cc != nil && !req.SkipCache {
		stored := *resp
		cc.Set(cache.Key(req.URL, req.SkipExtraction), &stored)
	}
	job.Complete(resp)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
			Type:      webhook.EventScrapeCompleted,
			JobID:     job.ID,
			URL:       req.URL,
			Timestamp: time.Now().Unix(),
			Data:      resp,
		})
	}

	slog.Info("scrape job finished",
		"id", job.ID,
		"url", req.URL,
		"pages", len(resp.Pages),
		"warnings", len(resp.Warnings),
		"total_ms", resp.Timing.TotalMs,
	)
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
