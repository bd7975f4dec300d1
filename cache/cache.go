// Package cache holds recent scrape responses so repeat requests for the
// same wedding site skip the browser and the model. Couples' sites change
// rarely between edits, so a short TTL captures most of the win.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/usherhq/usher/models"
)

const (
	// TTL is how long a cached response stays servable.
	TTL = 1 * time.Hour

	cleanupInterval = 5 * time.Minute
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *models.ScrapeResponse
	createdAt time.Time
}

// Cache is an in-memory scrape-response cache, safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache bounded to maxEntries. A background goroutine evicts
// expired entries every few minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key derives the cache key from the normalized site URL and whether the
// scrape ran LLM extraction. Heuristic-only responses must never answer a
// full-extraction request, so the mode is part of the key.
func Key(url string, skipExtraction bool) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatBool(skipExtraction)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for key if one exists and is younger
// than the TTL.
func (c *Cache) Get(key string) (*models.ScrapeResponse, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > TTL {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity a random entry is evicted to make
// room (map iteration order is random in Go).
func (c *Cache) Set(key string, resp *models.ScrapeResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		response:  resp,
		createdAt: time.Now(),
	}
}

// Len returns the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-TTL)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
