// Package breaker implements per-(provider, operation-category) circuit
// breakers that gate admission to failing inference backends.
package breaker

import (
	"sync"
	"time"

	"github.com/zen-systems/lexgate/pkg/provider"
)

// State is the admission state of one circuit.
type State int

const (
	// Closed is the normal state: requests flow through.
	Closed State = iota
	// Open means the circuit tripped: requests are rejected without a call.
	Open
	// HalfOpen admits a single probe request to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Key identifies one circuit.
type Key struct {
	Provider provider.Provider
	Category provider.Category
}

// Config tunes circuit behavior.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens a closed circuit.
	FailureThreshold int
	// Cooldown is how long an open circuit waits before admitting a probe.
	Cooldown time.Duration
	// OnStateChange, when set, is invoked outside the circuit lock on every transition.
	OnStateChange func(key Key, from, to State)
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker is one circuit. All methods are safe for concurrent use.
type Breaker struct {
	key Key
	cfg Config

	mu             sync.Mutex
	state          State
	failures       int
	successes      int
	probing        bool
	lastFailure    time.Time
	lastTransition time.Time
}

func newBreaker(key Key, cfg Config) *Breaker {
	return &Breaker{
		key:            key,
		cfg:            cfg,
		state:          Closed,
		lastTransition: time.Now(),
	}
}

// Allow reports whether a request may proceed. An open circuit past its
// cooldown moves to half-open and admits exactly one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if time.Since(b.lastTransition) >= b.cfg.Cooldown {
			b.transitionTo(HalfOpen)
			b.probing = true
			return true
		}
		return false
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return false
	}
}

// RecordSuccess resets the failure count and closes a half-open circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes++
	b.probing = false
	if b.state == HalfOpen {
		b.transitionTo(Closed)
	}
}

// RecordFailure increments the failure count, opening a closed circuit at
// the threshold and reopening a half-open circuit immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	b.probing = false
	b.lastFailure = time.Now()

	switch b.state {
	case Closed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transitionTo(Open)
		}
	case HalfOpen:
		b.transitionTo(Open)
	}
}

// State returns the current admission state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the circuit back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.successes = 0
	b.probing = false
	b.transitionTo(Closed)
}

// Stats is a point-in-time snapshot of one circuit.
type Stats struct {
	Provider       provider.Provider `json:"provider"`
	Category       provider.Category `json:"category"`
	State          string            `json:"state"`
	Failures       int               `json:"failures"`
	Successes      int               `json:"successes"`
	LastFailure    time.Time         `json:"last_failure,omitempty"`
	LastTransition time.Time         `json:"last_transition"`
}

// Stats snapshots the circuit.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Provider:       b.key.Provider,
		Category:       b.key.Category,
		State:          b.state.String(),
		Failures:       b.failures,
		Successes:      b.successes,
		LastFailure:    b.lastFailure,
		LastTransition: b.lastTransition,
	}
}

// transitionTo changes state. Caller must hold b.mu.
func (b *Breaker) transitionTo(next State) {
	if b.state == next {
		return
	}
	from := b.state
	b.state = next
	b.lastTransition = time.Now()
	if next == Closed {
		b.failures = 0
		b.successes = 0
	}
	if b.cfg.OnStateChange != nil {
		go b.cfg.OnStateChange(b.key, from, next)
	}
}
