package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/models"
	"github.com/usherhq/usher/renderer"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports browser-slot utilisation and degrades status when every
// available slot is held — new scrapes that need a browser will queue.
func Health(gov *renderer.SlotGovernor, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := gov.Stats()

		status := "healthy"
		if stats.Target > 0 && stats.InUse >= stats.Target {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			SlotStats: stats,
			Version:   "0.1.0",
		})
	}
}
