// Package audit is the append-only trail of nominee activity. Recording is
// deliberately fire-and-forget: a full buffer or a failing sink must never
// block or fail the request that produced the event.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/platform/metrics"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

const (
	queueCapacity = 1024
	insertTimeout = 5 * time.Second
)

// Publisher fans a persisted entry out to an external stream. Optional;
// failures are logged and never retried.
type Publisher interface {
	Publish(ctx context.Context, e Entry) error
}

// Recorder accepts entries on a buffered queue and persists them from a
// single background worker.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	queue chan Entry
	done  chan struct{}

	// mu guards closed so Record never sends on a closed queue when a
	// request races shutdown.
	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts the persistence worker. Call Close on shutdown to
// drain the queue. publisher may be nil.
func NewRecorder(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	r := &Recorder{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		queue:     make(chan Entry, queueCapacity),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues an entry. It never returns an error and never blocks;
// when the queue is full the entry is counted as dropped and lost.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}
	if e.DeviceClass == "" {
		e.DeviceClass = ClassifyDevice(e.UserAgent)
	}
	if e.SourceIP == "" {
		e.SourceIP = "Unknown"
	}
	if e.UserAgent == "" {
		e.UserAgent = "Unknown"
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.metrics.AuditDropped.Inc()
		r.logger.WarnContext(ctx, "audit recorder closed, entry dropped",
			"action", string(e.Action),
			"nominee_id", e.NomineeID.String(),
		)
		return
	}

	select {
	case r.queue <- e:
		r.metrics.AuditRecorded.Inc()
	default:
		r.metrics.AuditDropped.Inc()
		r.logger.WarnContext(ctx, "audit queue full, entry dropped",
			"action", string(e.Action),
			"nominee_id", e.NomineeID.String(),
		)
	}
}

// ListByNominee returns the newest entries for one nominee.
func (r *Recorder) ListByNominee(ctx context.Context, nomineeID domain.NomineeID, limit int) ([]Entry, error) {
	entries, err := r.store.ListByNominee(ctx, nomineeID, limit)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list audit entries", err)
	}
	return entries, nil
}

// ListByOwner returns the newest entries across all of an owner's nominees.
func (r *Recorder) ListByOwner(ctx context.Context, ownerID domain.OwnerID, limit int) ([]Entry, error) {
	entries, err := r.store.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list audit entries", err)
	}
	return entries, nil
}

// Close stops accepting entries and drains what is already queued, up to
// the context deadline.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		if err := r.store.Insert(ctx, e); err != nil {
			r.metrics.AuditDropped.Inc()
			r.logger.Error("audit entry not persisted",
				"action", string(e.Action),
				"nominee_id", e.NomineeID.String(),
				"error", err,
			)
			cancel()
			continue
		}
		if r.publisher != nil {
			if err := r.publisher.Publish(ctx, e); err != nil {
				r.logger.Warn("audit entry not published",
					"action", string(e.Action),
					"error", err,
				)
			}
		}
		cancel()
	}
}
