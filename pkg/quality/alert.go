package quality

import (
	"context"
	"fmt"

	"github.com/zen-systems/lexgate/pkg/notify"
)

const alertMarkerKey = "quality:alert-sent"

// evaluateAlert recomputes the rolling flagged-rate after each persisted
// record and sends at most one alert per cooldown window.
func (m *Monitor) evaluateAlert(ctx context.Context) {
	agg, err := m.store.AggregateSince(ctx, m.now().Add(-m.cfg.Window))
	if err != nil {
		m.log.Error().Err(err).Msg("failed to read quality aggregate")
		return
	}
	if agg.Count < m.cfg.MinSamples {
		return
	}
	rate := agg.FlaggedRate()
	if rate <= m.cfg.AlertThreshold {
		return
	}

	// The marker is the shared idempotency guard across workers; the mutex
	// closes the in-process check-then-set race.
	m.alertMu.Lock()
	defer m.alertMu.Unlock()
	if m.marker != nil {
		if _, alreadySent := m.marker.Get(ctx, alertMarkerKey); alreadySent {
			return
		}
	}

	msg := notify.Message{
		Subject:   "Answer quality degradation detected",
		Recipient: m.cfg.Recipient,
		Body: fmt.Sprintf(
			"Flagged-answer rate over the last %s is %.1f%% (%d of %d sampled answers), above the %.1f%% threshold. Average faithfulness score: %.2f.",
			m.cfg.Window, rate*100, agg.FlaggedCount, agg.Count, m.cfg.AlertThreshold*100, agg.AverageScore),
	}
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.log.Error().Err(err).Msg("failed to send quality alert")
		return
	}

	if m.marker != nil {
		m.marker.Set(ctx, alertMarkerKey, m.now().Format("2006-01-02T15:04:05Z07:00"), m.cfg.AlertCooldown)
	}
	m.log.Warn().
		Float64("flagged_rate", rate).
		Int("samples", agg.Count).
		Msg("quality alert sent")
}
