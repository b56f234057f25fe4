// Package verification drives the review of submitted death certificates.
// Manual mode leaves the decision to a reviewer; auto mode approves after a
// short delay and exists for demos and development environments only.
package verification

import (
	"context"
	"log/slog"
	"time"

	"heirloom/internal/nominee"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

const autoApproveTimeout = 10 * time.Second

// ContinuityTrigger marks an owner's continuity as asserted. Implemented by
// the owner service; idempotent.
type ContinuityTrigger interface {
	EnsureTriggered(ctx context.Context, id domain.OwnerID) error
}

// Workflow coordinates proof submission and review, including the
// continuity side effect of an approval.
type Workflow struct {
	nominees  *nominee.Service
	owners    ContinuityTrigger
	scheduler *Scheduler
	logger    *slog.Logger

	autoApprove bool
	delay       time.Duration
}

// NewWorkflow builds a manual-review workflow.
func NewWorkflow(nominees *nominee.Service, owners ContinuityTrigger, logger *slog.Logger) *Workflow {
	return &Workflow{
		nominees:  nominees,
		owners:    owners,
		scheduler: NewScheduler(),
		logger:    logger,
	}
}

// EnableAutoApproval switches to demo behavior: every submission is
// approved after delay unless a reviewer decided it first.
func (w *Workflow) EnableAutoApproval(delay time.Duration) {
	w.autoApprove = true
	w.delay = delay
}

// SubmitProof records the certificate and, in auto mode, schedules the
// approval.
func (w *Workflow) SubmitProof(ctx context.Context, rec nominee.Record, documentRef, documentName string) (nominee.Record, error) {
	updated, err := w.nominees.SubmitProof(ctx, rec, documentRef, documentName)
	if err != nil {
		return nominee.Record{}, err
	}
	if w.autoApprove {
		id := updated.ID
		w.logger.InfoContext(ctx, "auto approval scheduled",
			"nominee_id", id.String(),
			"delay", w.delay.String(),
		)
		w.scheduler.Schedule(id, w.delay, func() { w.runAutoApproval(id) })
	}
	return updated, nil
}

// Approve applies a reviewer's approval and asserts the owner's continuity:
// an approved death certificate is itself evidence of death.
func (w *Workflow) Approve(ctx context.Context, id domain.NomineeID) (nominee.Record, error) {
	w.scheduler.Cancel(id)
	rec, err := w.nominees.Approve(ctx, id)
	if err != nil {
		return nominee.Record{}, err
	}
	// The approval stands even if the trigger write fails; the flag is
	// idempotent and the next approval or heartbeat lapse retries it.
	if err := w.owners.EnsureTriggered(ctx, rec.OwnerID); err != nil {
		w.logger.ErrorContext(ctx, "continuity trigger after approval failed",
			"owner_id", rec.OwnerID.String(),
			"error", err,
		)
	}
	return rec, nil
}

// Reject applies a reviewer's rejection.
func (w *Workflow) Reject(ctx context.Context, id domain.NomineeID, reason string) (nominee.Record, error) {
	w.scheduler.Cancel(id)
	return w.nominees.Reject(ctx, id, reason)
}

// Close cancels pending auto approvals.
func (w *Workflow) Close() {
	w.scheduler.Close()
}

func (w *Workflow) runAutoApproval(id domain.NomineeID) {
	ctx, cancel := context.WithTimeout(context.Background(), autoApproveTimeout)
	defer cancel()

	_, err := w.Approve(ctx, id)
	switch {
	case err == nil:
		w.logger.Info("nominee auto approved", "nominee_id", id.String())
	case dErrors.Is(err, dErrors.CodeInvalidState):
		// A reviewer got there first. Nothing to do.
		w.logger.Debug("auto approval skipped", "nominee_id", id.String())
	default:
		w.logger.Error("auto approval failed", "nominee_id", id.String(), "error", err)
	}
}
