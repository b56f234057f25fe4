package nominee

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"heirloom/internal/platform/metrics"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

// codeAttempts bounds reference code regeneration on collision. The code
// space is 36^8 so one retry is already rare.
const codeAttempts = 10

// Service owns the nominee lifecycle: designation, proof submission and the
// review transitions. Continuity side effects of an approval belong to the
// verification workflow, not here.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// Create designates a new nominee for an owner. The record starts INACTIVE
// with a freshly generated reference code.
func (s *Service) Create(ctx context.Context, ownerID domain.OwnerID, email, displayName string, relationship domain.RelationshipKind) (Record, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := domain.NewReferenceCode()
		if err != nil {
			return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create nominee", err)
		}
		rec := Record{
			ID:            domain.NewNomineeID(),
			OwnerID:       ownerID,
			Email:         email,
			DisplayName:   strings.TrimSpace(displayName),
			Relationship:  relationship,
			ReferenceCode: code,
			Status:        domain.StatusInactive,
			CreatedAt:     time.Now(),
		}

		err = s.store.Create(ctx, rec)
		switch {
		case err == nil:
			s.metrics.NomineesCreated.Inc()
			s.logger.InfoContext(ctx, "nominee created",
				"nominee_id", rec.ID.String(),
				"owner_id", ownerID.String(),
			)
			return rec, nil
		case errors.Is(err, ErrDuplicateCode):
			continue
		case errors.Is(err, ErrDuplicateEmail):
			return Record{}, dErrors.New(dErrors.CodeConflict, "a nominee with this email already exists")
		case errors.Is(err, ErrOwnerLimit):
			return Record{}, dErrors.New(dErrors.CodeConflict, "maximum number of nominees reached")
		case errors.Is(err, sentinel.ErrNotFound):
			return Record{}, dErrors.New(dErrors.CodeNotFound, "owner not found")
		default:
			return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create nominee", err)
		}
	}
	return Record{}, dErrors.New(dErrors.CodeInternal, "failed to allocate a unique reference code")
}

// List returns an owner's nominees in designation order.
func (s *Service) List(ctx context.Context, ownerID domain.OwnerID) ([]Record, error) {
	recs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list nominees", err)
	}
	return recs, nil
}

// Get fetches a record by id.
func (s *Service) Get(ctx context.Context, id domain.NomineeID) (Record, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "nominee not found")
		}
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load nominee", err)
	}
	return rec, nil
}

// FindByCredentials resolves a nominee by reference code and checks the
// email belongs to it. Unknown code is not found; an email mismatch is
// unauthorized without revealing which part was wrong.
func (s *Service) FindByCredentials(ctx context.Context, email string, code domain.ReferenceCode) (Record, error) {
	rec, err := s.store.FindByReferenceCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "no nominee matches these credentials")
		}
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load nominee", err)
	}
	if !strings.EqualFold(rec.Email, strings.TrimSpace(email)) {
		return Record{}, dErrors.New(dErrors.CodeUnauthorized, "email does not match this reference code")
	}
	return rec, nil
}

// SubmitProof attaches a verification document and moves the record to
// PENDING_VERIFICATION. Exactly one of two concurrent submissions wins.
func (s *Service) SubmitProof(ctx context.Context, rec Record, documentRef, documentName string) (Record, error) {
	updated, err := rec.WithProof(documentRef, documentName, time.Now())
	if err != nil {
		return Record{}, err
	}
	if err := s.swap(ctx, rec.Status, updated, "submit proof"); err != nil {
		return Record{}, err
	}
	s.logger.InfoContext(ctx, "verification document submitted",
		"nominee_id", rec.ID.String(),
		"document", documentName,
	)
	return updated, nil
}

// Approve moves a pending record to ACTIVE.
func (s *Service) Approve(ctx context.Context, id domain.NomineeID) (Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	updated, err := rec.Approved(time.Now())
	if err != nil {
		return Record{}, err
	}
	if err := s.swap(ctx, rec.Status, updated, "approve"); err != nil {
		return Record{}, err
	}
	s.logger.InfoContext(ctx, "nominee approved", "nominee_id", id.String())
	return updated, nil
}

// Reject moves a pending record to REJECTED with the given reason.
func (s *Service) Reject(ctx context.Context, id domain.NomineeID, reason string) (Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	updated, err := rec.Rejected(reason, time.Now())
	if err != nil {
		return Record{}, err
	}
	if err := s.swap(ctx, rec.Status, updated, "reject"); err != nil {
		return Record{}, err
	}
	s.logger.InfoContext(ctx, "nominee rejected", "nominee_id", id.String(), "reason", updated.RejectionReason)
	return updated, nil
}

func (s *Service) swap(ctx context.Context, expected domain.NomineeStatus, updated Record, op string) error {
	err := s.store.Swap(ctx, expected, updated)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrStaleStatus):
		// Lost the race; report against the status that actually won.
		current, getErr := s.store.FindByID(ctx, updated.ID)
		if getErr != nil {
			return dErrors.New(dErrors.CodeInvalidState, "cannot "+op+": nominee status changed concurrently")
		}
		return dErrors.New(dErrors.CodeInvalidState,
			"cannot "+op+" (current status "+current.Status.String()+")")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "nominee not found")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "failed to "+op, err)
	}
}
