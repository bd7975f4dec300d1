package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/models"
	"golang.org/x/time/rate"
)

// limiterPool hands out one token bucket per caller and evicts buckets
// idle for an hour so abandoned keys do not accumulate.
type limiterPool struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	p := &limiterPool{
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		buckets: make(map[string]*bucket),
	}
	go p.sweep()
	return p
}

func (p *limiterPool) get(id string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[id]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[id] = b
	}
	b.seen = time.Now()
	return b.lim
}

func (p *limiterPool) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		p.mu.Lock()
		for id, b := range p.buckets {
			if b.seen.Before(cutoff) {
				delete(p.buckets, id)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit applies per-caller token-bucket limiting. The identity is the
// key fingerprint set by Auth; unauthenticated deployments fall back to
// the client IP. Every scrape can hold a Chrome page for tens of seconds,
// so the sustained rate is kept deliberately low.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		id := c.GetString(CallerKey)
		if id == "" {
			id = c.ClientIP()
		}
		if !pool.get(id).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}
