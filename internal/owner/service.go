package owner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"heirloom/internal/platform/metrics"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/sentinel"
)

const bcryptCost = 12

// Releaser is notified when an owner's continuity trigger fires so held
// assets can be released. Implemented by the vault service.
type Releaser interface {
	ReleaseForOwner(ctx context.Context, ownerID domain.OwnerID, at time.Time) error
}

// Service owns the owner account lifecycle and the one-way continuity flag.
type Service struct {
	store    Store
	releaser Releaser
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: logger, metrics: m}
}

// SetReleaser wires the vault release hook. Optional; nil means no assets
// are released on trigger.
func (s *Service) SetReleaser(r Releaser) { s.releaser = r }

// Register creates an owner account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (Owner, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Owner{}, dErrors.Wrap(dErrors.CodeInternal, "failed to register", err)
	}
	o := Owner{
		ID:           domain.NewOwnerID(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.store.Save(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Owner{}, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return Owner{}, dErrors.Wrap(dErrors.CodeInternal, "failed to register", err)
	}
	return o, nil
}

// Authenticate verifies owner credentials. The error is identical for a
// missing account and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Owner, error) {
	o, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Owner{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return Owner{}, dErrors.Wrap(dErrors.CodeInternal, "failed to authenticate", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)) != nil {
		return Owner{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return o, nil
}

// Get fetches an owner by id.
func (s *Service) Get(ctx context.Context, id domain.OwnerID) (Owner, error) {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Owner{}, dErrors.New(dErrors.CodeNotFound, "owner not found")
		}
		return Owner{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load owner", err)
	}
	return o, nil
}

// TriggerContinuity asserts the owner's incapacity/death. Conflict when the
// flag is already set; the flag never resets.
func (s *Service) TriggerContinuity(ctx context.Context, id domain.OwnerID) (Owner, error) {
	applied, err := s.trigger(ctx, id)
	if err != nil {
		return Owner{}, err
	}
	if !applied {
		return Owner{}, dErrors.New(dErrors.CodeConflict, "continuity access has already been triggered")
	}
	return s.Get(ctx, id)
}

// EnsureTriggered sets the continuity flag if it is not set yet. Idempotent;
// used by nominee approval and the dead-man's-switch monitor.
func (s *Service) EnsureTriggered(ctx context.Context, id domain.OwnerID) error {
	_, err := s.trigger(ctx, id)
	return err
}

func (s *Service) trigger(ctx context.Context, id domain.OwnerID) (bool, error) {
	now := time.Now()
	applied, err := s.store.TriggerContinuity(ctx, id, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "owner not found")
		}
		return false, dErrors.Wrap(dErrors.CodeInternal, "failed to trigger continuity", err)
	}
	if !applied {
		return false, nil
	}

	s.metrics.ContinuityTriggers.Inc()
	s.logger.InfoContext(ctx, "continuity access triggered", "owner_id", id.String())

	if s.releaser != nil {
		// Release failure must not roll back the trigger; the monitor and
		// subsequent triggers cannot re-release because the flag is one-way,
		// so log loudly.
		if err := s.releaser.ReleaseForOwner(ctx, id, now); err != nil {
			s.logger.ErrorContext(ctx, "releasing assets after continuity trigger failed",
				"owner_id", id.String(),
				"error", err,
			)
		}
	}
	return true, nil
}
