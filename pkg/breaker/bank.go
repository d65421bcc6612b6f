package breaker

import (
	"sort"
	"sync"
)

// Bank manages the circuit for every (provider, category) pair.
// Circuits are created lazily on first use and live until ResetAll.
type Bank struct {
	mu       sync.RWMutex
	circuits map[Key]*Breaker
	cfg      Config
}

// NewBank creates an empty bank.
func NewBank(cfg Config) *Bank {
	return &Bank{
		circuits: make(map[Key]*Breaker),
		cfg:      cfg.withDefaults(),
	}
}

// Get returns the circuit for a key, creating it if needed.
func (bk *Bank) Get(key Key) *Breaker {
	bk.mu.RLock()
	b, ok := bk.circuits[key]
	bk.mu.RUnlock()
	if ok {
		return b
	}

	bk.mu.Lock()
	defer bk.mu.Unlock()
	if b, ok := bk.circuits[key]; ok {
		return b
	}
	b = newBreaker(key, bk.cfg)
	bk.circuits[key] = b
	return b
}

// Stats snapshots every live circuit, ordered by provider then category.
func (bk *Bank) Stats() []Stats {
	bk.mu.RLock()
	defer bk.mu.RUnlock()

	out := make([]Stats, 0, len(bk.circuits))
	for _, b := range bk.circuits {
		out = append(out, b.Stats())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider == out[j].Provider {
			return out[i].Category < out[j].Category
		}
		return out[i].Provider < out[j].Provider
	})
	return out
}

// Reset closes the circuit for one key, if it exists.
func (bk *Bank) Reset(key Key) {
	bk.mu.RLock()
	b, ok := bk.circuits[key]
	bk.mu.RUnlock()
	if ok {
		b.Reset()
	}
}

// ResetAll discards every circuit. The next Get recreates them closed.
func (bk *Bank) ResetAll() {
	bk.mu.Lock()
	defer bk.mu.Unlock()
	bk.circuits = make(map[Key]*Breaker)
}
