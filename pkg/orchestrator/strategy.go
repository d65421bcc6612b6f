package orchestrator

import (
	"time"

	"github.com/zen-systems/lexgate/pkg/provider"
)

// Strategy defines the resource envelope for one operation category.
type Strategy struct {
	// Timeout is the hard wall-clock budget for the whole orchestrate call.
	Timeout time.Duration
	// AttemptTimeout bounds a single provider attempt.
	AttemptTimeout time.Duration
	// MaxRetries is the per-candidate retry ceiling for retryable failures.
	MaxRetries int
	// Providers is the fallback cascade, most preferred first.
	Providers []provider.Provider
	// MinProviders is the smallest acceptable cascade length.
	MinProviders int
}

// StrategyTable maps operation categories to their strategies.
type StrategyTable map[provider.Category]Strategy

// DefaultStrategies returns the built-in per-category strategy table.
func DefaultStrategies() StrategyTable {
	return StrategyTable{
		provider.Chat: {
			Timeout:        60 * time.Second,
			AttemptTimeout: 25 * time.Second,
			MaxRetries:     2,
			Providers:      []provider.Provider{provider.Anthropic, provider.OpenAI, provider.Google, provider.Local},
			MinProviders:   2,
		},
		provider.Embedding: {
			Timeout:        20 * time.Second,
			AttemptTimeout: 8 * time.Second,
			MaxRetries:     2,
			Providers:      []provider.Provider{provider.OpenAI, provider.Google, provider.Local},
			MinProviders:   1,
		},
		provider.Classification: {
			Timeout:        30 * time.Second,
			AttemptTimeout: 12 * time.Second,
			MaxRetries:     1,
			Providers:      []provider.Provider{provider.OpenAI, provider.Anthropic, provider.Google, provider.Local},
			MinProviders:   2,
		},
		provider.Extraction: {
			Timeout:        45 * time.Second,
			AttemptTimeout: 20 * time.Second,
			MaxRetries:     2,
			Providers:      []provider.Provider{provider.OpenAI, provider.Anthropic, provider.Google},
			MinProviders:   1,
		},
		provider.Reasoning: {
			Timeout:        90 * time.Second,
			AttemptTimeout: 45 * time.Second,
			MaxRetries:     1,
			Providers:      []provider.Provider{provider.Anthropic, provider.OpenAI},
			MinProviders:   1,
		},
		provider.QualityJudge: {
			Timeout:        40 * time.Second,
			AttemptTimeout: 20 * time.Second,
			MaxRetries:     1,
			Providers:      []provider.Provider{provider.OpenAI, provider.Anthropic},
			MinProviders:   1,
		},
	}
}
