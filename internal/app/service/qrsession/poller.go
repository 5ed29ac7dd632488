package qrsession

import (
	"context"
	"time"

	"github.com/fatflowers/fuelpos/internal/platform/bank"
)

// poll asks the bank for the session's status every PollInterval until it
// gets a definite answer. Transient errors count as pending. The deadline is
// enforced by countdown, so a slow bank cannot delay the timeout.
func (m *Manager) poll(ctx context.Context, s *session) {
	defer m.wg.Done()
	t := time.NewTicker(m.opts.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		cctx, cancel := context.WithDeadline(ctx, s.ExpiresAt)
		res, err := m.checker.CheckStatus(cctx, s.TransactionRef)
		cancel()
		if ctx.Err() != nil {
			return
		}

		switch {
		case err != nil:
			m.metrics.PollOutcome("transient")
			m.log.Debugw("qr_poll_transient_error", "session_id", s.ID, "err", err)
		case res == nil || res.Status == bank.StatusPending:
			m.metrics.PollOutcome("pending")
		case res.Status == bank.StatusSuccess:
			m.metrics.PollOutcome("success")
			m.succeed(s, res.ExternalTransactionID)
			return
		case res.Status == bank.StatusFailed:
			m.metrics.PollOutcome("failed")
			m.fail(s, res.Reason)
			return
		default:
			m.metrics.PollOutcome("transient")
		}
	}
}

// countdown publishes the remaining time every TickInterval and times the
// session out when the deadline passes. Ticks are rounded up to whole
// intervals and stop before zero, so a display never shows zero while the
// session is still waiting.
func (m *Manager) countdown(ctx context.Context, s *session) {
	defer m.wg.Done()
	deadline := time.NewTimer(time.Until(s.ExpiresAt))
	defer deadline.Stop()
	t := time.NewTicker(m.opts.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			m.timeout(s)
			return
		case now := <-t.C:
			if remaining := s.ExpiresAt.Sub(now); remaining > 0 {
				m.tick(s, ceilTo(remaining, m.opts.TickInterval))
			}
		}
	}
}

func ceilTo(d, unit time.Duration) time.Duration {
	if unit <= 0 {
		return d
	}
	return ((d + unit - 1) / unit) * unit
}
