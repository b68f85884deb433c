// Package cache memoizes completed reports by content fingerprint with a
// fixed time-to-live. The default store is an in-process map; a SQLite-backed
// store is available when reports should outlive a restart.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// ErrNotFound is returned on a miss or an expired entry
var ErrNotFound = errors.New("report not found")

// Store holds completed reports keyed by fingerprint. Writes are atomic at
// the whole-report level; concurrent writers for the same fingerprint are
// last-writer-wins.
type Store interface {
	Get(fingerprint string) (*models.Report, error)
	Put(fingerprint string, report *models.Report) error
	Close() error
}

// Fingerprint returns the stable cache key for normalized text
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	report    models.Report
	expiresAt time.Time
}

// MemoryStore is a TTL map guarded by a mutex. Expiry is passive: expired
// entries are treated as misses and evicted on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process store with the given TTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the store's clock, for tests
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get returns the cached report or ErrNotFound
func (s *MemoryStore) Get(fingerprint string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, fingerprint)
		return nil, ErrNotFound
	}

	report := e.report
	return &report, nil
}

// Put stores a completed report with a fresh TTL clock
func (s *MemoryStore) Put(fingerprint string, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprint] = entry{
		report:    *report,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Close implements Store; a memory store has nothing to release
func (s *MemoryStore) Close() error { return nil }
