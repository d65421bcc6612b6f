package qstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used in tests and offline runs.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends one record.
func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

// AggregateSince computes the rolling aggregate from `since` to now.
func (s *MemoryStore) AggregateSince(_ context.Context, since time.Time) (Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agg Aggregate
	var total float64
	for _, rec := range s.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		agg.Count++
		total += rec.Score
		if rec.Flagged {
			agg.FlaggedCount++
		}
	}
	if agg.Count > 0 {
		agg.AverageScore = total / float64(agg.Count)
	}
	return agg, nil
}

// Records returns a copy of everything inserted.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
