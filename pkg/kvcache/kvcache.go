// Package kvcache defines the TTL key-value store used for classification
// results and alert anti-spam markers, plus an in-memory implementation.
package kvcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a key-value cache with per-key expiry. Implementations may lose
// entries at any time; callers must tolerate misses by recomputing.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store bounded by an LRU. Expiry is checked lazily
// on Get; per-key TTLs make the shared cache usable for both 24h
// classification entries and short-lived alert markers.
type Memory struct {
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// NewMemory creates a bounded in-memory store.
func NewMemory(maxEntries int) (*Memory, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	entries, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

// Get returns the live value for key, expiring stale entries on the way.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return "", false
	}
	if m.now().After(e.expiresAt) {
		m.entries.Remove(key)
		return "", false
	}
	return e.value, true
}

// Set stores a value under key for ttl. Non-positive ttl entries are dropped.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.entries.Add(key, entry{value: value, expiresAt: m.now().Add(ttl)})
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) {
	m.entries.Remove(key)
}

// Len returns the number of entries currently held, including unexpired ones.
func (m *Memory) Len() int {
	return m.entries.Len()
}
