package access

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"heirloom/internal/audit"
	"heirloom/internal/nominee"
	"heirloom/internal/owner"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/middleware"
	"heirloom/internal/session"
	"heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

var tracer = otel.Tracer("heirloom/access")

// Evaluation pairs a decision with the snapshots it was computed from.
type Evaluation struct {
	Decision Decision
	Nominee  nominee.Record
	Owner    owner.Owner
}

// LoginResult is a granted nominee session.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	Evaluation Evaluation
}

// Service runs the decision engine against live state and turns granted
// decisions into sessions.
type Service struct {
	owners   *owner.Service
	nominees *nominee.Service
	sessions *session.Issuer
	recorder *audit.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(owners *owner.Service, nominees *nominee.Service, sessions *session.Issuer, recorder *audit.Recorder, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		owners:   owners,
		nominees: nominees,
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
		metrics:  m,
	}
}

// Evaluate checks credentials and runs the decision table. It has no side
// effects on nominee or owner state.
func (s *Service) Evaluate(ctx context.Context, email string, code domain.ReferenceCode) (Evaluation, error) {
	ctx, span := tracer.Start(ctx, "access.Evaluate")
	defer span.End()

	rec, err := s.nominees.FindByCredentials(ctx, email, code)
	if err != nil {
		span.RecordError(err)
		return Evaluation{}, err
	}
	o, err := s.owners.Get(ctx, rec.OwnerID)
	if err != nil {
		// The owner row backing a nominee must exist; its absence is a data
		// integrity fault, not a caller mistake.
		span.RecordError(err)
		return Evaluation{}, dErrors.Wrap(dErrors.CodeInternal, "owner account for nominee missing", err)
	}

	d := Decide(o, rec)
	s.metrics.AccessDecisions.WithLabelValues(string(d.RequiredAction)).Inc()
	span.SetAttributes(
		attribute.Bool("decision.can_access", d.CanAccess),
		attribute.String("decision.required_action", string(d.RequiredAction)),
		attribute.String("nominee.status", rec.Status.String()),
	)
	s.logger.InfoContext(ctx, "access decision evaluated",
		"nominee_id", rec.ID.String(),
		"owner_id", o.ID.String(),
		"can_access", d.CanAccess,
		"required_action", string(d.RequiredAction),
	)
	return Evaluation{Decision: d, Nominee: rec, Owner: o}, nil
}

// Login re-evaluates the decision and, when it grants, issues a session and
// records SESSION_START. A denied decision is audited as a blocked attempt.
func (s *Service) Login(ctx context.Context, email string, code domain.ReferenceCode) (LoginResult, error) {
	ctx, span := tracer.Start(ctx, "access.Login")
	defer span.End()

	ev, err := s.Evaluate(ctx, email, code)
	if err != nil {
		return LoginResult{}, err
	}

	if !ev.Decision.CanAccess {
		s.recorder.Record(ctx, audit.Entry{
			NomineeID: ev.Nominee.ID,
			OwnerID:   ev.Owner.ID,
			Action:    audit.ActionFailedAccessAttempt,
			Detail:    ev.Decision.Message,
			SourceIP:  middleware.GetClientIP(ctx),
			UserAgent: middleware.GetUserAgent(ctx),
			Status:    audit.StatusBlocked,
		})
		return LoginResult{}, dErrors.New(dErrors.CodeForbidden, ev.Decision.Message)
	}

	token, expiresAt, err := s.sessions.IssueNomineeSession(ev.Nominee.ID, ev.Owner.ID)
	if err != nil {
		span.RecordError(err)
		return LoginResult{}, err
	}
	s.metrics.SessionsIssued.WithLabelValues("nominee").Inc()
	s.recorder.Record(ctx, audit.Entry{
		NomineeID: ev.Nominee.ID,
		OwnerID:   ev.Owner.ID,
		Action:    audit.ActionSessionStart,
		SourceIP:  middleware.GetClientIP(ctx),
		UserAgent: middleware.GetUserAgent(ctx),
	})
	return LoginResult{Token: token, ExpiresAt: expiresAt, Evaluation: ev}, nil
}
