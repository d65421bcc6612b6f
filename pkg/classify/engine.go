// Package classify implements the multi-signal legal content classification
// engine: cheap structural and keyword detectors fused with an optional
// LLM signal routed through the provider orchestrator.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/lexgate/pkg/kvcache"
	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
)

// LLMFunc performs the provider-specific classification call. Supplied by
// the wiring layer (llmexec) so the engine stays SDK-free.
type LLMFunc func(ctx context.Context, p provider.Provider, prompt string) (string, error)

// Config carries the tuned policy constants. The weights and thresholds
// encode observed heuristics, not structural requirements, so they are
// configuration rather than code.
type Config struct {
	// Weights for signal fusion. Rebalanced proportionally when a signal
	// is absent.
	Weights map[SignalSource]float64
	// Thresholds is the adaptive minimum confidence per primary category.
	Thresholds map[Category]float64
	// DefaultThreshold applies when the category has no entry.
	DefaultThreshold float64
	// CacheTTL bounds how long a fused result may be reused.
	CacheTTL time.Duration
	// BatchSize is the fixed group size for ClassifyBatch.
	BatchSize int
}

// DefaultConfig returns the production policy constants.
func DefaultConfig() Config {
	return Config{
		Weights: map[SignalSource]float64{
			SourceStructure: 0.3,
			SourceKeywords:  0.4,
			SourceLLM:       0.3,
		},
		Thresholds: map[Category]float64{
			Jurisprudence: 0.5,
			Legislation:   0.65,
			Doctrine:      0.55,
			Procedure:     0.6,
			Actualite:     0.45,
		},
		DefaultThreshold: 0.6,
		CacheTTL:         24 * time.Hour,
		BatchSize:        5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Weights) == 0 {
		c.Weights = d.Weights
	}
	if len(c.Thresholds) == 0 {
		c.Thresholds = d.Thresholds
	}
	if c.DefaultThreshold <= 0 {
		c.DefaultThreshold = d.DefaultThreshold
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	return c
}

// Engine fuses classification signals into confidence-scored results.
// Safe for concurrent use.
type Engine struct {
	orch  *orchestrator.Orchestrator
	llm   LLMFunc
	cache kvcache.Store
	cfg   Config
	log   zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCache sets the result cache. Without one the engine always recomputes.
func WithCache(store kvcache.Store) EngineOption {
	return func(e *Engine) { e.cache = store }
}

// WithConfig overrides the policy constants.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) { e.cfg = cfg.withDefaults() }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log.With().Str("component", "classify").Logger() }
}

// NewEngine creates a classification engine. llm may be nil, in which case
// the LLM signal is never collected and the cheap signals carry full weight.
func NewEngine(orch *orchestrator.Orchestrator, llm LLMFunc, opts ...EngineOption) *Engine {
	e := &Engine{
		orch: orch,
		llm:  llm,
		cfg:  DefaultConfig(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify produces a best-effort categorized result. It only returns an
// error when ForceLLM is set and every provider is exhausted or the call
// budget is spent; all other failures degrade into the fused result.
func (e *Engine) Classify(ctx context.Context, input Input, opts Options) (*Result, error) {
	key := cacheKey(input.Source, input.URL)

	// ForceLLM bypasses cache reads: a cached result may predate the LLM
	// signal the caller is explicitly asking for.
	if e.cache != nil && !opts.SkipCache && !opts.ForceLLM {
		if raw, ok := e.cache.Get(ctx, key); ok {
			var cached Result
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				cached.FromCache = true
				return &cached, nil
			}
			e.cache.Delete(ctx, key)
		}
	}

	var signals []Signal
	if sig := structureSignal(input); sig != nil {
		signals = append(signals, *sig)
	}
	if sig := keywordSignal(input); sig != nil {
		signals = append(signals, *sig)
	}

	cheap := e.fuse(signals)
	needLLM := opts.ForceLLM || cheap.Confidence < e.thresholdFor(cheap.PrimaryCategory)

	var nature string
	if needLLM && e.llm != nil {
		sig, docNature, err := e.llmSignal(ctx, input)
		// Only provider exhaustion aborts a forced classification; a parse
		// failure keeps the degraded zero-confidence signal in the fusion.
		if err != nil && opts.ForceLLM && isProviderExhaustion(err) {
			return nil, err
		}
		signals = append(signals, sig)
		nature = docNature
	}

	result := e.fuse(signals)
	result.DocumentNature = nature
	e.applyValidationPolicy(result)

	if e.cache != nil && !opts.SkipCache {
		if raw, err := json.Marshal(result); err == nil {
			e.cache.Set(ctx, key, string(raw), e.cfg.CacheTTL)
		}
	}
	return result, nil
}

// fuse combines signals with the configured weights. Zero-confidence
// signals stay in the result for observability but contribute no weight,
// so a degraded LLM call cannot drag down the cheap signals.
func (e *Engine) fuse(signals []Signal) *Result {
	result := &Result{Signals: signals}
	if len(signals) == 0 {
		result.RequiresValidation = true
		result.ValidationReason = "no classification signals available"
		return result
	}

	catScores := make(map[Category]float64)
	domScores := make(map[Domain]float64)
	var totalWeight float64

	for _, sig := range signals {
		if sig.Confidence <= 0 {
			continue
		}
		w := e.cfg.Weights[sig.Source]
		if w <= 0 {
			continue
		}
		totalWeight += w
		if sig.Category != "" {
			catScores[sig.Category] += w * sig.Confidence
		}
		if sig.Domain != "" {
			domScores[sig.Domain] += w * sig.Confidence
		}
	}

	if totalWeight > 0 {
		result.PrimaryCategory = argmax(catScores)
		result.Domain = argmax(domScores)
		result.Confidence = catScores[result.PrimaryCategory] / totalWeight
	}
	return result
}

// applyValidationPolicy sets the requires-validation flag from the adaptive
// threshold and the contradiction rule.
func (e *Engine) applyValidationPolicy(result *Result) {
	distinct := make(map[Category]struct{})
	for _, sig := range result.Signals {
		if sig.Category != "" {
			distinct[sig.Category] = struct{}{}
		}
	}
	if len(distinct) >= 3 {
		result.RequiresValidation = true
		result.ValidationReason = fmt.Sprintf("signals nominate %d distinct categories", len(distinct))
		return
	}

	threshold := e.thresholdFor(result.PrimaryCategory)
	if result.Confidence < threshold {
		result.RequiresValidation = true
		result.ValidationReason = fmt.Sprintf(
			"confidence %.2f below %s threshold %.2f",
			result.Confidence, categoryLabel(result.PrimaryCategory), threshold)
	}
}

func (e *Engine) thresholdFor(cat Category) float64 {
	if t, ok := e.cfg.Thresholds[cat]; ok {
		return t
	}
	return e.cfg.DefaultThreshold
}

func categoryLabel(cat Category) string {
	if cat == "" {
		return "default"
	}
	return string(cat)
}

// argmax returns the highest-scoring key, ties broken lexicographically so
// fusion stays deterministic.
func argmax[K ~string](scores map[K]float64) K {
	var best K
	var bestScore float64
	keys := make([]K, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if scores[k] > bestScore {
			best, bestScore = k, scores[k]
		}
	}
	return best
}
