// Package store persists extracted wedding records behind a narrow
// interface. The service ships with an in-memory implementation; durable
// storage belongs to the SaaS backend, which consumes the import endpoint.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/usherhq/usher/models"
)

// Record is the persisted form of one scraped wedding site.
type Record struct {
	// WeddingID is the idempotency key: the caller-supplied wedding ID
	// when present, otherwise the normalized source URL.
	WeddingID string `json:"wedding_id"`

	SourceURL string             `json:"source_url"`
	Platform  string             `json:"platform"`
	Data      models.WeddingData `json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence collaborator for scraped wedding data.
// Implementations must be safe for concurrent use.
type Store interface {
	// Upsert writes rec under rec.WeddingID, creating it or replacing the
	// previous version. It reports whether a new record was created.
	Upsert(ctx context.Context, rec *Record) (created bool, err error)

	// Get returns the record stored under weddingID, if any.
	Get(ctx context.Context, weddingID string) (*Record, bool, error)
}

// Memory is the in-process Store used by default. Contents do not survive
// a restart.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]*Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]*Record)}
}

// Upsert implements Store. The original CreatedAt is preserved when a
// record is replaced.
func (m *Memory) Upsert(_ context.Context, rec *Record) (bool, error) {
	if rec == nil || rec.WeddingID == "" {
		return false, fmt.Errorf("store: wedding id required")
	}

	now := time.Now()
	cp := *rec

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, exists := m.recs[cp.WeddingID]
	if exists {
		cp.CreatedAt = prev.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.recs[cp.WeddingID] = &cp

	return !exists, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, weddingID string) (*Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.recs[weddingID]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs)
}
