package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/usherhq/usher/models"
)

// CallerKey is the gin context key under which Auth records the caller
// identity. The value is a fingerprint of the API key, never the key
// itself, so downstream consumers (rate limiting, request logs) can use
// it without handling the secret.
const CallerKey = "caller"

// Auth guards the scrape, import and map endpoints with static API keys.
// A key arrives either way the SaaS backends send it:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// An empty key list disables authentication entirely; that is the
// local-development mode.
func Auth(apiKeys []string) gin.HandlerFunc {
	if len(apiKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	valid := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			valid[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			unauthorized(c, "missing API key: send X-API-Key or Authorization: Bearer <key>")
			return
		}
		if _, ok := valid[key]; !ok {
			unauthorized(c, "invalid API key")
			return
		}
		c.Set(CallerKey, Fingerprint(key))
		c.Next()
	}
}

// requestKey pulls the API key out of the request, X-API-Key first.
func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Fingerprint derives a short non-reversible caller identity from an API
// key.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:6])
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
