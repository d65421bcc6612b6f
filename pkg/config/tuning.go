package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/lexgate/pkg/breaker"
	"github.com/zen-systems/lexgate/pkg/classify"
	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
	"github.com/zen-systems/lexgate/pkg/quality"
)

// Tuning holds the orchestration, classification, and quality policy
// constants. Everything here encodes observed heuristics, so it lives in
// YAML rather than code.
type Tuning struct {
	Providers      []ProviderConfig          `yaml:"providers,omitempty"`
	Strategies     map[string]StrategyConfig `yaml:"strategies,omitempty"`
	Breaker        BreakerConfig             `yaml:"breaker,omitempty"`
	Retry          RetryConfig               `yaml:"retry,omitempty"`
	Classification ClassificationConfig      `yaml:"classification,omitempty"`
	Quality        QualityConfig             `yaml:"quality,omitempty"`
}

// ProviderConfig describes one provider's capability profile.
type ProviderConfig struct {
	Provider         string   `yaml:"provider"`
	Categories       []string `yaml:"categories"`
	PremiumSkippable bool     `yaml:"premium_skippable,omitempty"`
	RequestsPerMin   int      `yaml:"requests_per_min,omitempty"`
	Burst            int      `yaml:"burst,omitempty"`
}

// StrategyConfig defines one operation category's resource envelope.
type StrategyConfig struct {
	TimeoutMs        int      `yaml:"timeout_ms,omitempty"`
	AttemptTimeoutMs int      `yaml:"attempt_timeout_ms,omitempty"`
	MaxRetries       int      `yaml:"max_retries,omitempty"`
	Providers        []string `yaml:"providers,omitempty"`
	MinProviders     int      `yaml:"min_providers,omitempty"`
}

// BreakerConfig tunes the circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold,omitempty"`
	CooldownMs       int `yaml:"cooldown_ms,omitempty"`
}

// RetryConfig tunes attempt backoff.
type RetryConfig struct {
	BaseBackoffMs int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs  int `yaml:"max_backoff_ms,omitempty"`
}

// ClassificationConfig tunes signal fusion and validation.
type ClassificationConfig struct {
	Weights          map[string]float64 `yaml:"weights,omitempty"`
	Thresholds       map[string]float64 `yaml:"thresholds,omitempty"`
	DefaultThreshold float64            `yaml:"default_threshold,omitempty"`
	CacheTTLHours    int                `yaml:"cache_ttl_hours,omitempty"`
	BatchSize        int                `yaml:"batch_size,omitempty"`
}

// QualityConfig tunes sampling and alerting.
type QualityConfig struct {
	SampleRate        float64 `yaml:"sample_rate,omitempty"`
	FlagThreshold     float64 `yaml:"flag_threshold,omitempty"`
	AlertThreshold    float64 `yaml:"alert_threshold,omitempty"`
	MinSamples        int     `yaml:"min_samples,omitempty"`
	WindowHours       int     `yaml:"window_hours,omitempty"`
	CooldownHours     int     `yaml:"cooldown_hours,omitempty"`
	Recipient         string  `yaml:"recipient,omitempty"`
	MaxWorkers        int     `yaml:"max_workers,omitempty"`
	MaxKeyPoints      int     `yaml:"max_key_points,omitempty"`
}

// LoadTuning reads tuning from a YAML file.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DefaultTuning returns an empty tuning; every consumer falls back to its
// package defaults for absent sections.
func DefaultTuning() *Tuning {
	return &Tuning{}
}

// ProviderProfiles converts the provider section, falling back to the
// built-in capability table when absent.
func (t *Tuning) ProviderProfiles() ([]provider.Profile, error) {
	if len(t.Providers) == 0 {
		return provider.DefaultProfiles(), nil
	}
	profiles := make([]provider.Profile, 0, len(t.Providers))
	for _, pc := range t.Providers {
		cats, err := parseCategories(pc.Categories)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Provider, err)
		}
		profiles = append(profiles, provider.Profile{
			Provider:         provider.Provider(pc.Provider),
			Categories:       cats,
			PremiumSkippable: pc.PremiumSkippable,
			RequestsPerMin:   pc.RequestsPerMin,
			Burst:            pc.Burst,
		})
	}
	return profiles, nil
}

// StrategyTable converts the strategies section, merging over the defaults.
func (t *Tuning) StrategyTable() (orchestrator.StrategyTable, error) {
	table := orchestrator.DefaultStrategies()
	for name, sc := range t.Strategies {
		cat := provider.Category(name)
		strategy, ok := table[cat]
		if !ok {
			return nil, fmt.Errorf("unknown operation category %q", name)
		}
		if sc.TimeoutMs > 0 {
			strategy.Timeout = time.Duration(sc.TimeoutMs) * time.Millisecond
		}
		if sc.AttemptTimeoutMs > 0 {
			strategy.AttemptTimeout = time.Duration(sc.AttemptTimeoutMs) * time.Millisecond
		}
		if sc.MaxRetries > 0 {
			strategy.MaxRetries = sc.MaxRetries
		}
		if len(sc.Providers) > 0 {
			providers := make([]provider.Provider, 0, len(sc.Providers))
			for _, p := range sc.Providers {
				providers = append(providers, provider.Provider(p))
			}
			strategy.Providers = providers
		}
		if sc.MinProviders > 0 {
			strategy.MinProviders = sc.MinProviders
		}
		table[cat] = strategy
	}
	return table, nil
}

// BreakerSettings converts the breaker section.
func (t *Tuning) BreakerSettings() breaker.Config {
	cfg := breaker.DefaultConfig()
	if t.Breaker.FailureThreshold > 0 {
		cfg.FailureThreshold = t.Breaker.FailureThreshold
	}
	if t.Breaker.CooldownMs > 0 {
		cfg.Cooldown = time.Duration(t.Breaker.CooldownMs) * time.Millisecond
	}
	return cfg
}

// RetrySettings converts the retry section.
func (t *Tuning) RetrySettings() orchestrator.RetryConfig {
	cfg := orchestrator.DefaultRetryConfig()
	if t.Retry.BaseBackoffMs > 0 {
		cfg.BaseBackoff = time.Duration(t.Retry.BaseBackoffMs) * time.Millisecond
	}
	if t.Retry.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(t.Retry.MaxBackoffMs) * time.Millisecond
	}
	return cfg
}

// ClassifySettings converts the classification section.
func (t *Tuning) ClassifySettings() classify.Config {
	cfg := classify.DefaultConfig()
	if len(t.Classification.Weights) > 0 {
		weights := make(map[classify.SignalSource]float64, len(t.Classification.Weights))
		for src, w := range t.Classification.Weights {
			weights[classify.SignalSource(src)] = w
		}
		cfg.Weights = weights
	}
	if len(t.Classification.Thresholds) > 0 {
		thresholds := make(map[classify.Category]float64, len(t.Classification.Thresholds))
		for cat, v := range t.Classification.Thresholds {
			thresholds[classify.Category(cat)] = v
		}
		cfg.Thresholds = thresholds
	}
	if t.Classification.DefaultThreshold > 0 {
		cfg.DefaultThreshold = t.Classification.DefaultThreshold
	}
	if t.Classification.CacheTTLHours > 0 {
		cfg.CacheTTL = time.Duration(t.Classification.CacheTTLHours) * time.Hour
	}
	if t.Classification.BatchSize > 0 {
		cfg.BatchSize = t.Classification.BatchSize
	}
	return cfg
}

// QualitySettings converts the quality section.
func (t *Tuning) QualitySettings() quality.Config {
	cfg := quality.DefaultConfig()
	if t.Quality.SampleRate > 0 {
		cfg.SampleRate = t.Quality.SampleRate
	}
	if t.Quality.FlagThreshold > 0 {
		cfg.FlagThreshold = t.Quality.FlagThreshold
	}
	if t.Quality.AlertThreshold > 0 {
		cfg.AlertThreshold = t.Quality.AlertThreshold
	}
	if t.Quality.MinSamples > 0 {
		cfg.MinSamples = t.Quality.MinSamples
	}
	if t.Quality.WindowHours > 0 {
		cfg.Window = time.Duration(t.Quality.WindowHours) * time.Hour
	}
	if t.Quality.CooldownHours > 0 {
		cfg.AlertCooldown = time.Duration(t.Quality.CooldownHours) * time.Hour
	}
	if t.Quality.Recipient != "" {
		cfg.Recipient = t.Quality.Recipient
	}
	if t.Quality.MaxWorkers > 0 {
		cfg.MaxWorkers = t.Quality.MaxWorkers
	}
	if t.Quality.MaxKeyPoints > 0 {
		cfg.MaxKeyPoints = t.Quality.MaxKeyPoints
	}
	return cfg
}

func parseCategories(names []string) ([]provider.Category, error) {
	known := make(map[provider.Category]struct{})
	for _, c := range provider.Categories() {
		known[c] = struct{}{}
	}
	out := make([]provider.Category, 0, len(names))
	for _, name := range names {
		cat := provider.Category(name)
		if _, ok := known[cat]; !ok {
			return nil, fmt.Errorf("unknown operation category %q", name)
		}
		out = append(out, cat)
	}
	return out, nil
}
