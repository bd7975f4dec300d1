package cache

import (
	"testing"
	"time"

	"github.com/usherhq/usher/models"
)

func TestKey_DistinguishesExtractionMode(t *testing.T) {
	url := "https://withjoy.com/emma-and-liam"
	if Key(url, false) == Key(url, true) {
		t.Error("full and heuristic-only scrapes must cache under different keys")
	}
	if Key(url, false) != Key(url, false) {
		t.Error("key is not deterministic")
	}
	if Key(url, false) == Key("https://withjoy.com/other", false) {
		t.Error("different URLs must cache under different keys")
	}
}

func TestCache_HitAndMiss(t *testing.T) {
	c := New(10)
	key := Key("https://www.zola.com/wedding/emma-and-liam", false)

	if _, ok := c.Get(key); ok {
		t.Error("empty cache reported a hit")
	}

	resp := &models.ScrapeResponse{Success: true, Platform: "zola"}
	c.Set(key, resp)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if got.Platform != "zola" {
		t.Errorf("got platform %q, want zola", got.Platform)
	}
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(10)
	key := Key("https://example.com/wedding", false)

	c.Set(key, &models.ScrapeResponse{Success: true})

	// Age the entry past the TTL by hand.
	c.mu.Lock()
	c.store[key].createdAt = time.Now().Add(-TTL - time.Minute)
	c.mu.Unlock()

	if _, ok := c.Get(key); ok {
		t.Error("expired entry served as a hit")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2)

	c.Set("a", &models.ScrapeResponse{})
	c.Set("b", &models.ScrapeResponse{})
	c.Set("c", &models.ScrapeResponse{})

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 after eviction", got)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should survive eviction")
	}
}
