// Package continuity implements the dead-man's switch: owners check in by
// logging in or hitting the heartbeat endpoint, and a lapse longer than the
// grace period asserts their continuity trigger automatically.
package continuity

import (
	"context"
	"log/slog"
	"time"

	"heirloom/pkg/domain"
)

// Trigger asserts an owner's continuity. Implemented by the owner service;
// idempotent.
type Trigger interface {
	EnsureTriggered(ctx context.Context, id domain.OwnerID) error
}

// Monitor periodically sweeps for owners whose heartbeat lapsed past the
// grace period and fires their continuity trigger.
type Monitor struct {
	store    HeartbeatStore
	trigger  Trigger
	logger   *slog.Logger
	grace    time.Duration
	interval time.Duration
}

func NewMonitor(store HeartbeatStore, trigger Trigger, grace, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:    store,
		trigger:  trigger,
		logger:   logger,
		grace:    grace,
		interval: interval,
	}
}

// Heartbeat records that the owner is alive.
func (m *Monitor) Heartbeat(ctx context.Context, ownerID domain.OwnerID) error {
	return m.store.Beat(ctx, ownerID, time.Now())
}

// LastSeen reports the owner's most recent heartbeat, if any.
func (m *Monitor) LastSeen(ctx context.Context, ownerID domain.OwnerID) (time.Time, bool, error) {
	return m.store.LastBeat(ctx, ownerID)
}

// Run sweeps on the configured interval until ctx is cancelled. Intended to
// run in its own goroutine under the server's errgroup.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.grace)
	expired, err := m.store.Expired(ctx, cutoff)
	if err != nil {
		m.logger.ErrorContext(ctx, "heartbeat sweep failed", "error", err)
		return
	}

	for _, ownerID := range expired {
		if err := m.trigger.EnsureTriggered(ctx, ownerID); err != nil {
			// Keep the heartbeat so the next sweep retries.
			m.logger.ErrorContext(ctx, "continuity trigger on lapse failed",
				"owner_id", ownerID.String(),
				"error", err,
			)
			continue
		}
		m.logger.WarnContext(ctx, "heartbeat lapsed, continuity triggered",
			"owner_id", ownerID.String(),
			"grace", m.grace.String(),
		)
		if err := m.store.Forget(ctx, ownerID); err != nil {
			m.logger.ErrorContext(ctx, "heartbeat cleanup failed",
				"owner_id", ownerID.String(),
				"error", err,
			)
		}
	}
}
