// Package orchestrator drives AI operations across a fallback cascade of
// inference providers, with circuit-breaker admission, bounded jittered
// retries, and a hard wall-clock budget per call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/lexgate/pkg/breaker"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// Executor performs the provider-specific remote call for one operation.
// The orchestrator treats it as opaque: it must return a classified error
// (*ProviderError where possible) on failure.
type Executor[T any] func(ctx context.Context, p provider.Provider) (T, error)

// Options selects the operation category and optional overrides.
type Options struct {
	Category provider.Category
	// ForceProvider collapses the cascade to a single provider.
	ForceProvider provider.Provider
	// Premium removes premium-skippable providers from the cascade.
	Premium bool
	// Timeout overrides the strategy's wall-clock budget when positive.
	Timeout time.Duration
}

// Result wraps a successful operation with routing metadata.
type Result[T any] struct {
	Value            T
	Provider         provider.Provider
	OriginalProvider provider.Provider
	FallbackUsed     bool
	Retries          int
	Latency          time.Duration
}

// RetryConfig tunes the backoff between retryable attempt failures.
type RetryConfig struct {
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig returns the production backoff tuning.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{BaseBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second}
}

// Orchestrator holds the provider registry, strategy table, and breaker bank.
// One instance serves many concurrent callers.
type Orchestrator struct {
	registry   *provider.Registry
	strategies StrategyTable
	bank       *breaker.Bank
	retry      RetryConfig
	log        zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log.With().Str("component", "orchestrator").Logger() }
}

// WithRetryConfig overrides the backoff tuning.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(o *Orchestrator) { o.retry = cfg }
}

// WithStrategies overrides the strategy table.
func WithStrategies(table StrategyTable) Option {
	return func(o *Orchestrator) { o.strategies = table }
}

// New creates an orchestrator over a registry and breaker bank.
func New(registry *provider.Registry, bank *breaker.Bank, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:   registry,
		strategies: DefaultStrategies(),
		bank:       bank,
		retry:      DefaultRetryConfig(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bank exposes the breaker bank for administrative access.
func (o *Orchestrator) Bank() *breaker.Bank { return o.bank }

// Registry exposes the provider registry.
func (o *Orchestrator) Registry() *provider.Registry { return o.registry }

// CircuitStats snapshots every live circuit breaker.
func (o *Orchestrator) CircuitStats() []breaker.Stats { return o.bank.Stats() }

// ResetAllCircuitBreakers discards all circuit state.
func (o *Orchestrator) ResetAllCircuitBreakers() { o.bank.ResetAll() }

// Strategy returns the strategy for a category.
func (o *Orchestrator) Strategy(c provider.Category) (Strategy, bool) {
	s, ok := o.strategies[c]
	return s, ok
}

// Orchestrate runs exec against the resolved candidate cascade until one
// provider succeeds, all are exhausted, or the wall-clock budget elapses.
// Candidates are attempted strictly in order, never concurrently.
func Orchestrate[T any](ctx context.Context, o *Orchestrator, exec Executor[T], opts Options) (*Result[T], error) {
	strategy, ok := o.strategies[opts.Category]
	if !ok {
		return nil, fmt.Errorf("no strategy for operation category %q", opts.Category)
	}

	candidates, err := o.resolveCandidates(strategy, opts)
	if err != nil {
		return nil, err
	}

	budget := strategy.Timeout
	if opts.Timeout > 0 {
		budget = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	first := candidates[0]
	var attempted, skipped []provider.Provider

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return nil, budgetOrCanceled(ctx.Err(), opts.Category, budget)
		}

		key := breaker.Key{Provider: candidate, Category: opts.Category}
		circuit := o.bank.Get(key)
		if !circuit.Allow() {
			o.log.Debug().
				Str("provider", string(candidate)).
				Str("category", string(opts.Category)).
				Msg("circuit open, skipping provider")
			skipped = append(skipped, candidate)
			continue
		}

		attempted = append(attempted, candidate)
		value, retries, err := attempt(ctx, o, exec, candidate, strategy)
		if err == nil {
			circuit.RecordSuccess()
			return &Result[T]{
				Value:            value,
				Provider:         candidate,
				OriginalProvider: first,
				FallbackUsed:     candidate != first,
				Retries:          retries,
				Latency:          time.Since(start),
			}, nil
		}

		// An abandoned attempt still counts against the circuit: a half-open
		// probe left unrecorded would keep the circuit locked forever.
		circuit.RecordFailure()

		if ctx.Err() != nil {
			return nil, budgetOrCanceled(ctx.Err(), opts.Category, budget)
		}

		o.log.Warn().
			Str("provider", string(candidate)).
			Str("category", string(opts.Category)).
			Int("retries", retries).
			Err(err).
			Msg("provider failed, trying next candidate")
	}

	return nil, &ExhaustedError{Category: opts.Category, Attempted: attempted, Skipped: skipped}
}

// budgetOrCanceled distinguishes caller cancellation from a spent budget.
func budgetOrCanceled(err error, c provider.Category, budget time.Duration) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &BudgetExceededError{Category: c, Budget: budget}
}

// resolveCandidates builds the ordered cascade for one call. ForceProvider
// and Premium bypass the strategy ordering but never the breaker check.
func (o *Orchestrator) resolveCandidates(strategy Strategy, opts Options) ([]provider.Provider, error) {
	if opts.ForceProvider != "" {
		if !o.registry.Supports(opts.ForceProvider, opts.Category) {
			return nil, fmt.Errorf("provider %q does not support operation category %q", opts.ForceProvider, opts.Category)
		}
		return []provider.Provider{opts.ForceProvider}, nil
	}

	var candidates []provider.Provider
	for _, p := range strategy.Providers {
		prof, ok := o.registry.Profile(p)
		if !ok || !prof.Supports(opts.Category) {
			continue
		}
		if opts.Premium && prof.PremiumSkippable {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no eligible providers for operation category %q", opts.Category)
	}
	if strategy.MinProviders > 0 && len(candidates) < strategy.MinProviders {
		o.log.Warn().
			Str("category", string(opts.Category)).
			Int("eligible", len(candidates)).
			Int("min", strategy.MinProviders).
			Msg("cascade below minimum provider count")
	}
	return candidates, nil
}
