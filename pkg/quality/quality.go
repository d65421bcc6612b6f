// Package quality watches production chat traffic for degraded answer
// quality: it samples completed operations, scores faithfulness with an
// LLM judge routed through the orchestrator, persists the results, and
// raises rate-limited alerts when the flagged rate climbs.
package quality

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/lexgate/pkg/kvcache"
	"github.com/zen-systems/lexgate/pkg/notify"
	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
	"github.com/zen-systems/lexgate/pkg/qstore"
)

// JudgeFunc performs the provider-specific judge call.
type JudgeFunc func(ctx context.Context, p provider.Provider, prompt string) (string, error)

// Source is one cited source behind a chat answer.
type Source struct {
	Title   string
	Excerpt string
}

// CheckRequest describes one completed chat operation.
type CheckRequest struct {
	ConversationID string
	MessageID      string
	Question       string
	Answer         string
	Sources        []Source
	// Degraded marks answers the pipeline already flagged (abstained or
	// fallback-quality); those are never sampled.
	Degraded bool
}

// Config tunes sampling and alerting.
type Config struct {
	// SampleRate is the independent probability of auditing one operation.
	SampleRate float64
	// FlagThreshold flags records scoring below it.
	FlagThreshold float64
	// AlertThreshold is the rolling flagged-rate that triggers an alert.
	AlertThreshold float64
	// MinSamples is the smallest window population worth evaluating.
	MinSamples int
	// Window is the rolling aggregation window.
	Window time.Duration
	// AlertCooldown is the anti-spam window between alerts.
	AlertCooldown time.Duration
	// Recipient receives alert notifications.
	Recipient string
	// MaxWorkers bounds concurrent judge calls.
	MaxWorkers int
	// MaxKeyPoints bounds how many source excerpts feed the judge.
	MaxKeyPoints int
	// CheckTimeout bounds one whole background check.
	CheckTimeout time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		SampleRate:     0.25,
		FlagThreshold:  0.5,
		AlertThreshold: 0.15,
		MinSamples:     5,
		Window:         24 * time.Hour,
		AlertCooldown:  6 * time.Hour,
		MaxWorkers:     4,
		MaxKeyPoints:   5,
		CheckTimeout:   2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.FlagThreshold <= 0 {
		c.FlagThreshold = d.FlagThreshold
	}
	if c.AlertThreshold <= 0 {
		c.AlertThreshold = d.AlertThreshold
	}
	if c.MinSamples <= 0 {
		c.MinSamples = d.MinSamples
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.AlertCooldown <= 0 {
		c.AlertCooldown = d.AlertCooldown
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.MaxKeyPoints <= 0 {
		c.MaxKeyPoints = d.MaxKeyPoints
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = d.CheckTimeout
	}
	return c
}

// Monitor is the quality sampler and alerter. Safe for concurrent use.
type Monitor struct {
	orch     *orchestrator.Orchestrator
	judge    JudgeFunc
	store    qstore.Store
	marker   kvcache.Store
	notifier notify.Notifier
	cfg      Config
	log      zerolog.Logger

	slots   chan struct{}
	wg      sync.WaitGroup
	alertMu sync.Mutex

	// Injectable for deterministic tests.
	randFloat func() float64
	now       func() time.Time
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(log zerolog.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log.With().Str("component", "quality").Logger() }
}

// WithMonitorConfig overrides the tuning.
func WithMonitorConfig(cfg Config) MonitorOption {
	return func(m *Monitor) { m.cfg = cfg.withDefaults() }
}

// NewMonitor creates a quality monitor.
func NewMonitor(orch *orchestrator.Orchestrator, judge JudgeFunc, store qstore.Store, marker kvcache.Store, notifier notify.Notifier, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		orch:      orch,
		judge:     judge,
		store:     store,
		marker:    marker,
		notifier:  notifier,
		cfg:       DefaultConfig(),
		log:       zerolog.Nop(),
		randFloat: rand.Float64,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.slots = make(chan struct{}, m.cfg.MaxWorkers)
	return m
}

// ScheduleCheck is the fire-and-forget hook invoked after every completed
// chat operation. It samples with fixed probability, declines degraded
// operations, and never blocks or fails the caller.
func (m *Monitor) ScheduleCheck(req CheckRequest) {
	if req.Degraded {
		return
	}
	if m.randFloat() >= m.cfg.SampleRate {
		return
	}

	select {
	case m.slots <- struct{}{}:
	default:
		// Worker pool is saturated; dropping a sample is cheaper than
		// delaying the request path.
		m.log.Debug().Str("message_id", req.MessageID).Msg("quality check dropped, worker pool full")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-m.slots }()
		defer func() {
			if r := recover(); r != nil {
				m.log.Error().Interface("panic", r).Msg("quality check panicked")
			}
		}()
		m.runCheck(req)
	}()
}

// Wait blocks until all in-flight checks finish. For shutdown and tests.
func (m *Monitor) Wait() {
	m.wg.Wait()
}
